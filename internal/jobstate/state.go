// Package jobstate holds the state of one export screen: the chosen file and
// outputs, the attempt phase, per-output jobs and the recent downloads log.
//
// State values are immutable once built. Reduce never mutates its input and
// replaces maps and slices it changes, so a State handed to an observer stays
// valid after later dispatches.
package jobstate

import (
	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

// SourceFile is the local image an attempt uploads.
type SourceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Selection holds both the pack choices and the single-size choice; Mode
// picks which one an attempt uses.
type Selection struct {
	Mode        domain.ExportMode
	Groups      map[catalog.Group]bool
	Group       catalog.Group
	Orientation catalog.Orientation
	SizeID      string
}

// State is the full store value.
type State struct {
	Phase           domain.Phase
	File            *SourceFile
	Selection       Selection
	ImageKey        string
	Jobs            map[string]domain.Job
	JobOrder        []string
	GlobalError     string
	RecentDownloads []domain.RecentDownload
}

// Initial returns the empty state: nothing selected, pack mode, first group
// in portrait with its first size.
func Initial() State {
	groups := make(map[catalog.Group]bool)
	for _, g := range catalog.GroupKeys() {
		groups[g] = false
	}
	first := catalog.GroupKeys()[0]
	return State{
		Phase: domain.PhaseIdle,
		Selection: Selection{
			Mode:        domain.ModePacks,
			Groups:      groups,
			Group:       first,
			Orientation: catalog.Portrait,
			SizeID:      firstSizeID(first),
		},
		Jobs: map[string]domain.Job{},
	}
}

// SelectedGroups returns the checked packs in catalog order.
func (s State) SelectedGroups() []catalog.Group {
	var out []catalog.Group
	for _, g := range catalog.GroupKeys() {
		if s.Selection.Groups[g] {
			out = append(out, g)
		}
	}
	return out
}

// Outputs lists what an attempt would enqueue for the current mode.
func (s State) Outputs() []domain.OutputSpec {
	sel := s.Selection
	if sel.Mode == domain.ModeSingle {
		group := catalog.EffectiveGroup(sel.Group, sel.Orientation)
		if _, ok := catalog.FindSize(group, sel.SizeID); !ok {
			sizes := catalog.SizesForGroup(group)
			if len(sizes) == 0 {
				return nil
			}
			return []domain.OutputSpec{domain.SingleOutput(sel.Group, sel.Orientation, sizes[0].ID)}
		}
		return []domain.OutputSpec{domain.SingleOutput(sel.Group, sel.Orientation, sel.SizeID)}
	}
	groups := s.SelectedGroups()
	out := make([]domain.OutputSpec, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.GroupOutput(g))
	}
	return out
}

// Job returns the job stored under key.
func (s State) Job(key string) (domain.Job, bool) {
	j, ok := s.Jobs[key]
	return j, ok
}

// OrderedJobs returns jobs in the order they were first recorded.
func (s State) OrderedJobs() []domain.Job {
	out := make([]domain.Job, 0, len(s.JobOrder))
	for _, key := range s.JobOrder {
		out = append(out, s.Jobs[key])
	}
	return out
}

// QuotaBlocked reports whether the last attempt hit a plan limit. Generation
// stays disabled until a reset.
func (s State) QuotaBlocked() bool {
	return domain.IsQuotaMarker(s.GlobalError)
}

// CanGenerate mirrors the enabled state of the generate action.
func (s State) CanGenerate() bool {
	return s.File != nil && len(s.Outputs()) > 0 && !s.Phase.Busy() && !s.QuotaBlocked()
}

func firstSizeID(g catalog.Group) string {
	sizes := catalog.SizesForGroup(g)
	if len(sizes) == 0 {
		return ""
	}
	return sizes[0].ID
}
