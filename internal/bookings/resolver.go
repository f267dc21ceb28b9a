package bookings

// AvailableCabins returns the cabins with no existing booking covering the
// exact (date, slot) triple. Slots are discrete and non-overlapping by
// construction, so conflict detection is an exact match, not interval math.
func AvailableCabins(cabins []string, existing []Booking, date string, slot Slot) []string {
	taken := make(map[string]bool)
	for _, b := range existing {
		if b.Date == date && b.StartTime == slot.Start && b.EndTime == slot.End {
			taken[b.Cabin] = true
		}
	}

	out := make([]string, 0, len(cabins))
	for _, c := range cabins {
		if !taken[c] {
			out = append(out, c)
		}
	}
	return out
}

// Availability maps every canonical slot label to its free cabins for a date.
func Availability(cabins []string, existing []Booking, date string) map[string][]string {
	out := make(map[string][]string, len(canonicalSlots))
	for _, slot := range canonicalSlots {
		out[slot.Label()] = AvailableCabins(cabins, existing, date, slot)
	}
	return out
}
