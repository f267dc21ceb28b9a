package bookings

import (
	"testing"
	"time"
)

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot("15:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.End != "17:00" {
		t.Fatalf("expected end 17:00, got %s", slot.End)
	}

	if _, err := ParseSlot("15:30"); err == nil {
		t.Fatalf("expected error for off-grid start time")
	}
}

func TestIsCanonical(t *testing.T) {
	if !IsCanonical("11:00", "13:00") {
		t.Fatalf("expected 11:00-13:00 to be canonical")
	}
	if IsCanonical("11:00", "15:00") {
		t.Fatalf("double-length window must not be canonical")
	}
}

func TestCovers(t *testing.T) {
	b := Booking{Date: "2025-03-10", StartTime: "13:00", EndTime: "15:00"}

	cases := []struct {
		name     string
		at       string
		expected bool
	}{
		{name: "before window", at: "2025-03-10T12:59:00Z", expected: false},
		{name: "at start", at: "2025-03-10T13:00:00Z", expected: true},
		{name: "inside window", at: "2025-03-10T14:30:00Z", expected: true},
		{name: "at end is exclusive", at: "2025-03-10T15:00:00Z", expected: false},
		{name: "wrong day", at: "2025-03-11T14:00:00Z", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now, err := time.Parse(time.RFC3339, tc.at)
			if err != nil {
				t.Fatalf("bad test time: %v", err)
			}
			if got := b.Covers(now.UTC()); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestStartsWithin(t *testing.T) {
	b := Booking{Date: "2025-03-10", StartTime: "17:00", EndTime: "19:00"}
	now := time.Date(2025, 3, 10, 16, 40, 0, 0, time.UTC)

	until, ok := b.StartsWithin(now, 30*time.Minute)
	if !ok {
		t.Fatalf("expected booking to start within 30 minutes")
	}
	if until != 20*time.Minute {
		t.Fatalf("expected 20m, got %s", until)
	}

	if _, ok := b.StartsWithin(now.Add(-time.Hour), 30*time.Minute); ok {
		t.Fatalf("booking more than 30 minutes out must not match")
	}
	if _, ok := b.StartsWithin(now.Add(time.Hour), 30*time.Minute); ok {
		t.Fatalf("booking already started must not match")
	}
}

func TestAvailableCabins(t *testing.T) {
	cabins := []string{"Cabin 1", "Cabin 2", "Cabin 3"}
	slot, _ := ParseSlot("19:00")
	existing := []Booking{
		{Cabin: "Cabin 2", Date: "2025-03-10", StartTime: "19:00", EndTime: "21:00"},
		// Same cabin, different slot: no conflict.
		{Cabin: "Cabin 1", Date: "2025-03-10", StartTime: "11:00", EndTime: "13:00"},
		// Same slot, different day: no conflict.
		{Cabin: "Cabin 3", Date: "2025-03-11", StartTime: "19:00", EndTime: "21:00"},
	}

	got := AvailableCabins(cabins, existing, "2025-03-10", slot)
	if len(got) != 2 || got[0] != "Cabin 1" || got[1] != "Cabin 3" {
		t.Fatalf("unexpected availability: %v", got)
	}
}

func TestAvailability(t *testing.T) {
	cabins := []string{"Cabin 1"}
	existing := []Booking{
		{Cabin: "Cabin 1", Date: "2025-03-10", StartTime: "13:00", EndTime: "15:00"},
	}
	byLabel := Availability(cabins, existing, "2025-03-10")
	if len(byLabel) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(byLabel))
	}
	if len(byLabel["13:00 - 15:00"]) != 0 {
		t.Fatalf("expected booked slot to have no free cabins")
	}
	if len(byLabel["11:00 - 13:00"]) != 1 {
		t.Fatalf("expected free slot to list the cabin")
	}
}
