package bookings

import (
	"fmt"
	"strings"
)

// Slot is one of the five canonical two-hour reservation windows. All
// bookings align to these boundaries; arbitrary windows are not modeled.
type Slot struct {
	Start string `json:"start"` // "15:04"
	End   string `json:"end"`
}

var canonicalSlots = []Slot{
	{Start: "11:00", End: "13:00"},
	{Start: "13:00", End: "15:00"},
	{Start: "15:00", End: "17:00"},
	{Start: "17:00", End: "19:00"},
	{Start: "19:00", End: "21:00"},
}

// Slots returns a copy of the canonical slot enumeration.
func Slots() []Slot {
	out := make([]Slot, len(canonicalSlots))
	copy(out, canonicalSlots)
	return out
}

func (s Slot) Label() string {
	return s.Start + " - " + s.End
}

// ParseSlot resolves a start time to its canonical slot.
func ParseSlot(start string) (Slot, error) {
	start = strings.TrimSpace(start)
	for _, s := range canonicalSlots {
		if s.Start == start {
			return s, nil
		}
	}
	return Slot{}, fmt.Errorf("no booking slot starts at %q", start)
}

// IsCanonical reports whether the window matches a slot boundary exactly.
func IsCanonical(start, end string) bool {
	for _, s := range canonicalSlots {
		if s.Start == start && s.End == end {
			return true
		}
	}
	return false
}
