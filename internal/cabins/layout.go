package cabins

import "strings"

// HighChairPrefix marks cabins that use the simplified two-state occupancy
// rule with no minimum-spend escalation.
const HighChairPrefix = "High Chair"

// Layout is the fixed cabin enumeration per location slug. Cabins have no
// stored identity; occupancy is always computed from the live order and
// booking sets.
type Layout map[string][]string

// DefaultLayout covers the two branches.
func DefaultLayout() Layout {
	return Layout{
		"brigade-road": {
			"Cabin 1", "Cabin 2", "Cabin 3", "Cabin 4", "Cabin 5", "Cabin 6",
			"Cabin 7", "Cabin 8", "Cabin 9", "Cabin 10", "Cabin 11",
			"High Chair",
		},
		"indiranagar": {
			"Cabin 1", "Cabin 2", "Cabin 3", "Cabin 4", "Cabin 5", "Cabin 6",
			"Cabin 7", "Cabin 8",
			"High Chair 1", "High Chair 2",
		},
	}
}

func (l Layout) Cabins(location string) []string {
	names := l[location]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func (l Layout) Knows(location string) bool {
	_, ok := l[location]
	return ok
}

// IsHighChair reports whether a cabin follows the high-chair rule.
func IsHighChair(cabin string) bool {
	return strings.HasPrefix(cabin, HighChairPrefix)
}
