package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
)

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{60 * time.Second, "1m ago"},
		{59 * time.Minute, "59m ago"},
		{2 * time.Hour, "2h ago"},
		{23*time.Hour + 59*time.Minute, "23h ago"},
		{49 * time.Hour, "2d ago"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := FormatRelativeTime(now.Add(-tc.ago), now); got != tc.want {
				t.Fatalf("FormatRelativeTime(-%s) = %q, want %q", tc.ago, got, tc.want)
			}
		})
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		JobStatusIdle:    false,
		JobStatusQueued:  false,
		JobStatusRunning: false,
		JobStatusDone:    true,
		JobStatusError:   true,
		JobStatusLocked:  true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestParseUserPlan(t *testing.T) {
	if plan, err := ParseUserPlan(" PRO "); err != nil || plan != UserPlanPro {
		t.Fatalf("ParseUserPlan(PRO) = %q, %v", plan, err)
	}
	if _, err := ParseUserPlan("supporter"); !errors.Is(err, ErrUnsupportedPlan) {
		t.Fatalf("ParseUserPlan(supporter) err = %v, want ErrUnsupportedPlan", err)
	}
}

func TestOutputSpecKeyAndLabel(t *testing.T) {
	pack := GroupOutput(catalog.GroupISO)
	if pack.Key() != "iso" || pack.Label() != "ISO A-Series" {
		t.Fatalf("group output = %q / %q", pack.Key(), pack.Label())
	}

	single := SingleOutput(catalog.Group2x3, catalog.Landscape, "12x18")
	if got := single.Key(); got != "single:2x3:Landscape:12x18" {
		t.Fatalf("single Key() = %q", got)
	}
	if got := single.Label(); got != "12x18 in (5400×3600)" {
		t.Fatalf("single Label() = %q", got)
	}

	square := SingleOutput(catalog.Group2x3, catalog.Square, "8x8")
	if square.Group != catalog.GroupSquare {
		t.Fatalf("square output group = %q, want SQUARE", square.Group)
	}
}

func TestQuotaMarkers(t *testing.T) {
	if QuotaMarkerFor(ModeSingle) != QuotaFreeQuickLimit || QuotaMarkerFor(ModePacks) != QuotaFreeBatchLimit {
		t.Fatalf("unexpected quota markers")
	}
	if !IsQuotaMarker(QuotaFreeBatchLimit) || IsQuotaMarker("Upload failed. Please try again.") {
		t.Fatalf("IsQuotaMarker misclassified")
	}
}
