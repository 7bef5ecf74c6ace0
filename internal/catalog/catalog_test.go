package catalog

import "testing"

func TestSizesForGroupKnownGroups(t *testing.T) {
	for _, g := range append(GroupKeys(), GroupSquare) {
		if sizes := SizesForGroup(g); len(sizes) == 0 {
			t.Fatalf("SizesForGroup(%q) returned no sizes", g)
		}
	}
}

func TestSizesForGroupUnknown(t *testing.T) {
	sizes := SizesForGroup("7x9")
	if sizes == nil || len(sizes) != 0 {
		t.Fatalf("SizesForGroup(unknown) = %#v, want empty slice", sizes)
	}
}

func TestSizesForGroupReturnsCopy(t *testing.T) {
	sizes := SizesForGroup(Group2x3)
	sizes[0].ID = "mutated"
	if got := SizesForGroup(Group2x3)[0].ID; got != "4x6" {
		t.Fatalf("catalog mutated through returned slice: %q", got)
	}
}

func TestCatalogEntries(t *testing.T) {
	tests := []struct {
		group  Group
		id     string
		width  int
		height int
		label  string
	}{
		{Group2x3, "4x6", 1200, 1800, "4x6 in (1200×1800)"},
		{Group2x3, "20x30", 6000, 9000, "20x30 in (6000×9000)"},
		{Group3x4, "9x12", 2700, 3600, "9x12 in (2700×3600)"},
		{Group4x5, "20x25", 6000, 7500, "20x25 in (6000×7500)"},
		{GroupISO, "A4", 2480, 3508, "A4 (2480×3508)"},
		{GroupISO, "A1", 7016, 9933, "A1 (7016×9933)"},
		{GroupExtras, "8.5x11", 2550, 3300, "8.5x11 in (2550×3300)"},
		{GroupSquare, "24x24", 7200, 7200, "24x24 in (7200×7200)"},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			s, ok := FindSize(tc.group, tc.id)
			if !ok {
				t.Fatalf("FindSize(%q, %q) not found", tc.group, tc.id)
			}
			if s.WidthPx != tc.width || s.HeightPx != tc.height {
				t.Fatalf("dimensions = %dx%d, want %dx%d", s.WidthPx, s.HeightPx, tc.width, tc.height)
			}
			if s.Label != tc.label {
				t.Fatalf("Label = %q, want %q", s.Label, tc.label)
			}
		})
	}
}

func TestOrientedDimensionsLandscapeInvolution(t *testing.T) {
	for _, g := range Groups() {
		for _, s := range g.Sizes {
			w, h := OrientedDimensions(s, Landscape)
			flipped := Size{ID: s.ID, WidthPx: w, HeightPx: h}
			w2, h2 := OrientedDimensions(flipped, Landscape)
			if w2 != s.WidthPx || h2 != s.HeightPx {
				t.Fatalf("%s: landscape twice = %dx%d, want %dx%d", s.ID, w2, h2, s.WidthPx, s.HeightPx)
			}
		}
	}
}

func TestOrientedDimensionsIdentity(t *testing.T) {
	s, _ := FindSize(Group2x3, "12x18")
	for _, o := range []Orientation{Portrait, Square} {
		if w, h := OrientedDimensions(s, o); w != 3600 || h != 5400 {
			t.Fatalf("OrientedDimensions(%s) = %dx%d, want 3600x5400", o, w, h)
		}
	}
}

func TestSizeLabel(t *testing.T) {
	inch, _ := FindSize(Group2x3, "12x18")
	iso, _ := FindSize(GroupISO, "A3")
	square, _ := FindSize(GroupSquare, "10x10")

	tests := []struct {
		name string
		size Size
		o    Orientation
		want string
	}{
		{"inch portrait", inch, Portrait, "12x18 in (3600×5400)"},
		{"inch landscape", inch, Landscape, "12x18 in (5400×3600)"},
		{"iso landscape", iso, Landscape, "A3 (4961×3508)"},
		{"square", square, Square, "10x10 in (3000×3000)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SizeLabel(tc.size, tc.o); got != tc.want {
				t.Fatalf("SizeLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGroupLabel(t *testing.T) {
	if got := GroupLabel(GroupISO); got != "ISO A-Series" {
		t.Fatalf("GroupLabel(iso) = %q", got)
	}
	if got := GroupLabel("mystery"); got != "mystery" {
		t.Fatalf("GroupLabel(unknown) = %q, want raw key", got)
	}
}

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		in      string
		want    Orientation
		wantErr bool
	}{
		{"landscape", Landscape, false},
		{" PORTRAIT ", Portrait, false},
		{"Square", Square, false},
		{"diagonal", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseOrientation(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseOrientation(%q) err = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseOrientation(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseGroup(t *testing.T) {
	if g, err := ParseGroup("ISO"); err != nil || g != GroupISO {
		t.Fatalf("ParseGroup(ISO) = %q, %v", g, err)
	}
	if g, err := ParseGroup("square"); err != nil || g != GroupSquare {
		t.Fatalf("ParseGroup(square) = %q, %v", g, err)
	}
	if _, err := ParseGroup("panorama"); err == nil {
		t.Fatalf("expected error for unknown group")
	}
}

func TestEffectiveGroup(t *testing.T) {
	if got := EffectiveGroup(Group4x5, Square); got != GroupSquare {
		t.Fatalf("EffectiveGroup(square) = %q", got)
	}
	if got := EffectiveGroup(Group4x5, Landscape); got != Group4x5 {
		t.Fatalf("EffectiveGroup(landscape) = %q", got)
	}
}
