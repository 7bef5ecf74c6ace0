package catalog

import (
	"fmt"
	"math"
	"strings"
)

// PPI is the print density every pixel dimension in the catalog is computed at.
const PPI = 300

// Group identifies an aspect-ratio family of output sizes.
type Group string

const (
	Group2x3    Group = "2x3"
	Group3x4    Group = "3x4"
	Group4x5    Group = "4x5"
	GroupISO    Group = "iso"
	GroupExtras Group = "extras"

	// GroupSquare selects the square size list. It is not a pack and never
	// appears in Groups().
	GroupSquare Group = "SQUARE"
)

// Orientation controls how a size is laid out.
type Orientation string

const (
	Portrait  Orientation = "Portrait"
	Landscape Orientation = "Landscape"
	Square    Orientation = "Square"
)

// Size is a catalog entry. Dimensions are portrait pixels at PPI.
type Size struct {
	ID       string
	WidthPx  int
	HeightPx int
	Label    string
}

// GroupInfo describes one pack of sizes.
type GroupInfo struct {
	Key   Group
	Label string
	Sizes []Size
}

var groups = []GroupInfo{
	{
		Key:   Group2x3,
		Label: "2×3 Ratio",
		Sizes: []Size{inchSize(4, 6), inchSize(8, 12), inchSize(10, 15), inchSize(12, 18), inchSize(16, 24), inchSize(20, 30)},
	},
	{
		Key:   Group3x4,
		Label: "3×4 Ratio",
		Sizes: []Size{inchSize(6, 8), inchSize(9, 12), inchSize(12, 16), inchSize(15, 20), inchSize(18, 24)},
	},
	{
		Key:   Group4x5,
		Label: "4×5 Ratio",
		Sizes: []Size{inchSize(8, 10), inchSize(12, 15), inchSize(16, 20), inchSize(20, 25)},
	},
	{
		Key:   GroupISO,
		Label: "ISO A-Series",
		Sizes: []Size{
			isoSize("A5", 1748, 2480),
			isoSize("A4", 2480, 3508),
			isoSize("A3", 3508, 4961),
			isoSize("A2", 4961, 7016),
			isoSize("A1", 7016, 9933),
		},
	},
	{
		Key:   GroupExtras,
		Label: "Common Sizes",
		Sizes: []Size{inchSize(5, 7), inchSize(8.5, 11), inchSize(11, 14), inchSize(16, 20), inchSize(20, 24)},
	},
}

var squareSizes = []Size{
	inchSize(8, 8),
	inchSize(10, 10),
	inchSize(12, 12),
	inchSize(16, 16),
	inchSize(20, 20),
	inchSize(24, 24),
}

func inToPx(in float64) int {
	return int(math.Round(in * PPI))
}

func inchSize(w, h float64) Size {
	id := fmt.Sprintf("%gx%g", w, h)
	wpx, hpx := inToPx(w), inToPx(h)
	return Size{ID: id, WidthPx: wpx, HeightPx: hpx, Label: inchLabel(id, wpx, hpx)}
}

func isoSize(name string, wpx, hpx int) Size {
	return Size{ID: name, WidthPx: wpx, HeightPx: hpx, Label: isoLabel(name, wpx, hpx)}
}

func inchLabel(id string, w, h int) string {
	return fmt.Sprintf("%s in (%d×%d)", id, w, h)
}

func isoLabel(id string, w, h int) string {
	return fmt.Sprintf("%s (%d×%d)", id, w, h)
}

// Groups returns every pack in display order.
func Groups() []GroupInfo {
	out := make([]GroupInfo, len(groups))
	for i, g := range groups {
		out[i] = GroupInfo{Key: g.Key, Label: g.Label, Sizes: append([]Size(nil), g.Sizes...)}
	}
	return out
}

// GroupKeys returns the pack keys in display order.
func GroupKeys() []Group {
	keys := make([]Group, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

// SizesForGroup returns the ordered sizes for group, the square list for
// GroupSquare, and an empty slice for anything else.
func SizesForGroup(group Group) []Size {
	if group == GroupSquare {
		return append([]Size(nil), squareSizes...)
	}
	for _, g := range groups {
		if g.Key == group {
			return append([]Size(nil), g.Sizes...)
		}
	}
	return []Size{}
}

// SquareSizes returns the equal-sided sizes used for Square orientation.
func SquareSizes() []Size {
	return SizesForGroup(GroupSquare)
}

// FindSize looks up a size id within a group.
func FindSize(group Group, id string) (Size, bool) {
	for _, s := range SizesForGroup(group) {
		if s.ID == id {
			return s, true
		}
	}
	return Size{}, false
}

// GroupLabel returns the display label for a pack, or the raw key when unknown.
func GroupLabel(group Group) string {
	if group == GroupSquare {
		return "Square"
	}
	for _, g := range groups {
		if g.Key == group {
			return g.Label
		}
	}
	return string(group)
}

// OrientedDimensions returns width and height for the orientation. Only
// Landscape swaps the portrait dimensions.
func OrientedDimensions(s Size, o Orientation) (width, height int) {
	if o == Landscape {
		return s.HeightPx, s.WidthPx
	}
	return s.WidthPx, s.HeightPx
}

// SizeLabel formats a human label using the oriented dimensions.
func SizeLabel(s Size, o Orientation) string {
	if o == Square {
		return s.Label
	}
	w, h := OrientedDimensions(s, o)
	if strings.HasPrefix(s.ID, "A") {
		return isoLabel(s.ID, w, h)
	}
	return inchLabel(s.ID, w, h)
}
