package utils

import "time"

// Location resolves the configured business timezone, falling back to UTC on
// a bad name rather than erroring; day boundaries then follow server time.
func Location(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfDay is midnight of now's calendar day in now's location. Orders
// created before this instant are "carried over" (pay-later candidates).
func StartOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// DateString formats the calendar date the way bookings store it.
func DateString(now time.Time) string {
	return now.Format("2006-01-02")
}
