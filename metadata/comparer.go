package metadata

import (
	"sort"
	"strings"
)

// PropertyListComparer orders property lists first by length and then
// ordinally by property name. Lists holding the same properties in a
// different order compare equal, which is what lets keys, foreign keys and
// indexes be looked up by column set.
func PropertyListComparer(a, b []*Property) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}

	left := sortedNames(a)
	right := sortedNames(b)
	for i := range left {
		if c := strings.Compare(left[i], right[i]); c != 0 {
			return c
		}
	}
	return 0
}

func sortedNames(properties []*Property) []string {
	names := make([]string, len(properties))
	for i, p := range properties {
		names[i] = p.Name()
	}
	sort.Strings(names)
	return names
}

// SameProperties reports whether both lists hold the same set of properties.
func SameProperties(a, b []*Property) bool {
	return PropertyListComparer(a, b) == 0
}
