package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/jobstate"
)

func apply(t *testing.T, f selectionFlags) jobstate.State {
	t.Helper()
	actions, err := f.actions()
	if err != nil {
		t.Fatalf("actions(%+v): %v", f, err)
	}
	s := jobstate.Initial()
	for _, a := range actions {
		s = jobstate.Reduce(s, a)
	}
	return s
}

func TestPackSelection(t *testing.T) {
	s := apply(t, selectionFlags{packs: "ISO, 2x3,iso,"})
	got := s.SelectedGroups()
	if len(got) != 2 || got[0] != catalog.Group2x3 || got[1] != catalog.GroupISO {
		t.Fatalf("groups = %v", got)
	}
	if s.Selection.Mode != domain.ModePacks {
		t.Fatalf("mode = %q", s.Selection.Mode)
	}
}

func TestSingleSelection(t *testing.T) {
	tests := []struct {
		name string
		f    selectionFlags
		want domain.OutputSpec
	}{
		{
			name: "landscape",
			f:    selectionFlags{size: "12x18", group: "2x3", orientation: "landscape"},
			want: domain.OutputSpec{Mode: domain.ModeSingle, Group: catalog.Group2x3, Orientation: catalog.Landscape, SizeID: "12x18"},
		},
		{
			name: "square",
			f:    selectionFlags{size: "12x12", group: "square", orientation: "Square"},
			want: domain.OutputSpec{Mode: domain.ModeSingle, Group: catalog.GroupSquare, Orientation: catalog.Square, SizeID: "12x12"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			outputs := apply(t, tc.f).Outputs()
			if len(outputs) != 1 || outputs[0] != tc.want {
				t.Fatalf("outputs = %+v, want %+v", outputs, tc.want)
			}
		})
	}
}

func TestSelectionErrors(t *testing.T) {
	tests := map[string]selectionFlags{
		"nothing":           {},
		"empty packs":       {packs: " , "},
		"unknown pack":      {packs: "2x3,panorama"},
		"square pack":       {packs: "square"},
		"size not in group": {size: "A4", group: "2x3", orientation: "portrait"},
		"bad orientation":   {size: "4x6", group: "2x3", orientation: "diagonal"},
		"square group":      {size: "12x12", group: "square", orientation: "portrait"},
	}
	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := f.actions(); err == nil {
				t.Fatalf("actions(%+v) succeeded", f)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	base := jobstate.Initial()
	withJob := func(status domain.JobStatus) jobstate.State {
		return jobstate.Reduce(base, jobstate.SetJob{Job: domain.Job{Key: "2x3", JobID: "j", Status: status}})
	}
	tests := []struct {
		name  string
		state jobstate.State
		want  int
	}{
		{"done", withJob(domain.JobStatusDone), 0},
		{"locked", withJob(domain.JobStatusLocked), 0},
		{"job error", withJob(domain.JobStatusError), 1},
		{"upload failed", jobstate.Reduce(base, jobstate.SetGlobalError{Message: "Upload failed. Please try again."}), 1},
		{"quota", jobstate.Reduce(base, jobstate.SetGlobalError{Message: domain.QuotaFreeBatchLimit}), 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.state); got != tc.want {
				t.Fatalf("exitCode = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPrintRecent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printRecent(&buf, []domain.RecentDownload{
		{Label: "2×3 Ratio", CompletedAt: now.Add(-5 * time.Minute), DownloadURL: "https://w/download/j1"},
	}, now)
	out := buf.String()
	if !strings.Contains(out, "5m ago") || !strings.Contains(out, "https://w/download/j1") {
		t.Fatalf("output = %q", out)
	}
}
