package models

import (
	"fmt"
	"slices"
	"strings"
)

// Group is the closed set of classifications an Item can belong to.
// The string value is what is persisted and sent over the wire.
type Group string

const (
	GroupPrimary   Group = "Primary"
	GroupSecondary Group = "Secondary"
)

// Groups lists every valid Group in display order.
var Groups = []Group{GroupPrimary, GroupSecondary}

// ParseGroup converts s into a Group. Matching is exact; "primary" is rejected.
func ParseGroup(s string) (Group, error) {
	g := Group(s)
	if !g.IsValid() {
		return "", fmt.Errorf("%q is not a valid choice", s)
	}
	return g, nil
}

// IsValid reports whether g is one of the declared groups.
func (g Group) IsValid() bool {
	return slices.Contains(Groups, g)
}

// GroupChoices joins the wire values with sep, e.g. "Primary|Secondary".
func GroupChoices(sep string) string {
	vals := make([]string, len(Groups))
	for i, g := range Groups {
		vals[i] = string(g)
	}
	return strings.Join(vals, sep)
}

// Label returns the human-readable name of the group.
func (g Group) Label() string {
	switch g {
	case GroupPrimary:
		return "Primary Group"
	case GroupSecondary:
		return "Secondary Group"
	default:
		return string(g)
	}
}

// String returns the underlying string value.
func (g Group) String() string {
	return string(g)
}
