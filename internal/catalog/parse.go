package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseOrientation accepts any casing of Portrait, Landscape or Square.
func ParseOrientation(raw string) (Orientation, error) {
	o := Orientation(cases.Title(language.Und).String(strings.TrimSpace(raw)))
	switch o {
	case Portrait, Landscape, Square:
		return o, nil
	}
	return "", fmt.Errorf("catalog: unknown orientation %q", raw)
}

// ParseGroup resolves a pack key case-insensitively. "square" maps to
// GroupSquare.
func ParseGroup(raw string) (Group, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == strings.ToLower(string(GroupSquare)) {
		return GroupSquare, nil
	}
	for _, g := range groups {
		if string(g.Key) == key {
			return g.Key, nil
		}
	}
	return "", fmt.Errorf("catalog: unknown group %q", raw)
}

// EffectiveGroup is the group a single-size export is looked up in: the
// square list for Square orientation, the chosen group otherwise.
func EffectiveGroup(group Group, o Orientation) Group {
	if o == Square {
		return GroupSquare
	}
	return group
}
