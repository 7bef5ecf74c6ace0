package domain

import (
	"strings"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
)

// ExportMode selects between whole packs and one concrete size.
type ExportMode string

const (
	ModePacks  ExportMode = "packs"
	ModeSingle ExportMode = "single"
)

// Quota markers are stored as the attempt error when the worker answers 402.
const (
	QuotaFreeBatchLimit = "QUOTA:FREE_BATCH_LIMIT"
	QuotaFreeQuickLimit = "QUOTA:FREE_QUICK_LIMIT"
)

// IsQuotaMarker reports whether an attempt error is a quota denial rather
// than a failure.
func IsQuotaMarker(msg string) bool {
	return strings.HasPrefix(msg, "QUOTA:")
}

// QuotaMarkerFor returns the marker used for the given mode.
func QuotaMarkerFor(mode ExportMode) string {
	if mode == ModeSingle {
		return QuotaFreeQuickLimit
	}
	return QuotaFreeBatchLimit
}

// OutputSpec is one requested output: a whole group, or a single size in an
// orientation.
type OutputSpec struct {
	Mode        ExportMode
	Group       catalog.Group
	Orientation catalog.Orientation
	SizeID      string
}

// GroupOutput selects a whole pack.
func GroupOutput(g catalog.Group) OutputSpec {
	return OutputSpec{Mode: ModePacks, Group: g}
}

// SingleOutput selects one size. The group is normalized to the square list
// for Square orientation.
func SingleOutput(g catalog.Group, o catalog.Orientation, sizeID string) OutputSpec {
	return OutputSpec{Mode: ModeSingle, Group: catalog.EffectiveGroup(g, o), Orientation: o, SizeID: sizeID}
}

// Key identifies the job slot for this output in the state store.
func (o OutputSpec) Key() string {
	if o.Mode == ModeSingle {
		return "single:" + string(o.Group) + ":" + string(o.Orientation) + ":" + o.SizeID
	}
	return string(o.Group)
}

// Label is the human name shown for completed downloads.
func (o OutputSpec) Label() string {
	if o.Mode == ModeSingle {
		if size, ok := catalog.FindSize(o.Group, o.SizeID); ok {
			return catalog.SizeLabel(size, o.Orientation)
		}
		return o.SizeID
	}
	return catalog.GroupLabel(o.Group)
}
