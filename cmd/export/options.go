package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/jobstate"
)

type selectionFlags struct {
	packs       string
	size        string
	group       string
	orientation string
}

// actions turns the command line selection into store actions. -size picks
// single mode; otherwise -packs lists the groups to export.
func (f selectionFlags) actions() ([]jobstate.Action, error) {
	if strings.TrimSpace(f.size) != "" {
		return f.singleActions()
	}
	if strings.TrimSpace(f.packs) == "" {
		return nil, errors.New("either -packs or -size is required")
	}

	actions := []jobstate.Action{jobstate.SetMode{Mode: domain.ModePacks}}
	seen := map[catalog.Group]bool{}
	for _, raw := range strings.Split(f.packs, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		g, err := catalog.ParseGroup(raw)
		if err != nil {
			return nil, err
		}
		if g == catalog.GroupSquare {
			return nil, errors.New("square is not a pack; use -size with -orientation square")
		}
		if seen[g] {
			continue
		}
		seen[g] = true
		actions = append(actions, jobstate.ToggleGroup{Group: g, Value: true})
	}
	if len(seen) == 0 {
		return nil, errors.New("-packs names no group")
	}
	return actions, nil
}

func (f selectionFlags) singleActions() ([]jobstate.Action, error) {
	o, err := catalog.ParseOrientation(f.orientation)
	if err != nil {
		return nil, err
	}
	g, err := catalog.ParseGroup(f.group)
	if err != nil {
		return nil, err
	}
	if g == catalog.GroupSquare && o != catalog.Square {
		return nil, fmt.Errorf("group square needs -orientation square")
	}
	size := strings.TrimSpace(f.size)
	if _, ok := catalog.FindSize(catalog.EffectiveGroup(g, o), size); !ok {
		return nil, fmt.Errorf("size %q is not in group %q", size, catalog.EffectiveGroup(g, o))
	}
	if g == catalog.GroupSquare {
		// the selection keeps a pack group; Square orientation redirects lookups
		g = catalog.GroupKeys()[0]
	}
	return []jobstate.Action{
		jobstate.SetMode{Mode: domain.ModeSingle},
		jobstate.SetGroup{Group: g},
		jobstate.SetOrientation{Orientation: o},
		jobstate.SetSize{SizeID: size},
	}, nil
}

// exitCode maps the final state onto the process status: 2 for a plan
// limit, 1 for any failure, 0 otherwise.
func exitCode(s jobstate.State) int {
	if s.QuotaBlocked() {
		return 2
	}
	if s.Phase == domain.PhaseError {
		return 1
	}
	for _, j := range s.OrderedJobs() {
		if j.Status == domain.JobStatusError {
			return 1
		}
	}
	return 0
}
