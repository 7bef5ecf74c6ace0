package jobstate

import (
	"maps"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

// Reduce returns the state after applying a. It performs no I/O.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetFile:
		s.File = a.File
	case ToggleGroup:
		s.Selection.Groups = cloneGroups(s.Selection.Groups)
		s.Selection.Groups[a.Group] = a.Value
	case SelectAll:
		groups := cloneGroups(s.Selection.Groups)
		for _, g := range catalog.GroupKeys() {
			groups[g] = a.Value
		}
		s.Selection.Groups = groups
	case SetMode:
		s.Selection.Mode = a.Mode
	case SetGroup:
		s.Selection.Group = a.Group
		s.Selection.SizeID = firstSizeID(a.Group)
	case SetOrientation:
		s.Selection = reorient(s.Selection, a.Orientation)
	case SetSize:
		s.Selection.SizeID = a.SizeID
	case SetPhase:
		s.Phase = a.Phase
	case SetImageKey:
		s.ImageKey = a.ImageKey
	case SetJob:
		s = putJob(s, a.Job)
	case SetGlobalError:
		s.GlobalError = a.Message
		s.Phase = domain.PhaseError
	case AddRecentDownload:
		recent := make([]domain.RecentDownload, 0, domain.MaxRecentDownloads)
		recent = append(recent, a.Download)
		recent = append(recent, s.RecentDownloads...)
		if len(recent) > domain.MaxRecentDownloads {
			recent = recent[:domain.MaxRecentDownloads]
		}
		s.RecentDownloads = recent
	case Reset:
		next := Initial()
		next.File = s.File
		next.Selection = s.Selection
		next.RecentDownloads = s.RecentDownloads
		return next
	}
	return s
}

func reorient(sel Selection, o catalog.Orientation) Selection {
	switch {
	case o == catalog.Square:
		sel.SizeID = firstSizeID(catalog.GroupSquare)
	case sel.Orientation == catalog.Square:
		sel.SizeID = firstSizeID(sel.Group)
	}
	sel.Orientation = o
	return sel
}

// putJob stores j unless it would move an existing job backwards. A job in a
// terminal status keeps it until the same key receives a different job id.
func putJob(s State, j domain.Job) State {
	if prev, ok := s.Jobs[j.Key]; ok && !replacesJob(prev, j) {
		if prev.Status.IsTerminal() || rank(j.Status) < rank(prev.Status) {
			return s
		}
	}

	jobs := make(map[string]domain.Job, len(s.Jobs)+1)
	maps.Copy(jobs, s.Jobs)
	if _, exists := jobs[j.Key]; !exists {
		s.JobOrder = append(append([]string(nil), s.JobOrder...), j.Key)
	}
	jobs[j.Key] = j
	s.Jobs = jobs
	return s
}

func replacesJob(prev, next domain.Job) bool {
	return prev.JobID != "" && next.JobID != "" && prev.JobID != next.JobID
}

func rank(status domain.JobStatus) int {
	switch status {
	case domain.JobStatusQueued:
		return 1
	case domain.JobStatusRunning:
		return 2
	case domain.JobStatusDone, domain.JobStatusError, domain.JobStatusLocked:
		return 3
	}
	return 0
}

func cloneGroups(in map[catalog.Group]bool) map[catalog.Group]bool {
	out := make(map[catalog.Group]bool, len(in))
	maps.Copy(out, in)
	return out
}
