package cabins

import (
	"fmt"
	"sort"
	"time"

	"cabin-order-services/internal/bookings"
	"cabin-order-services/internal/orders"
)

// Tier is the display severity of a cabin status.
type Tier string

const (
	TierVacant   Tier = "green"
	TierOccupied Tier = "yellow"
	TierCritical Tier = "red"
	TierBooked   Tier = "blue"
)

const (
	// Minimum spend starts at 150 and rises by 150 for every full hour a
	// cabin stays occupied.
	baseMinimumSpend = 150
	stepMinimumSpend = 150

	// BookingLookahead is how far ahead an upcoming booking is surfaced on
	// the cabin card.
	BookingLookahead = 30 * time.Minute
)

type Status struct {
	Cabin                string  `json:"cabin"`
	Label                string  `json:"label"`
	Tier                 Tier    `json:"tier"`
	Total                float64 `json:"total"`
	HasUndispatched      bool    `json:"hasUndispatched"`
	MinutesToNextBooking *int    `json:"minutesToNextBooking,omitempty"`
	VacantMinutes        *int    `json:"vacantMinutes,omitempty"`
	Rank                 int     `json:"rank,omitempty"`

	occupied bool
	booked   bool
	ratio    float64
	rankable bool
}

// Input is everything the evaluator needs for one cabin: the cabin's open
// (not yet Previous) orders, its bookings, the most recent fulfillment time
// for the vacant-dwell annotation, and the evaluation instant.
type Input struct {
	Cabin           string
	Open            []orders.Order
	Bookings        []bookings.Booking
	LastFulfilledAt *time.Time
	Now             time.Time
}

// MinimumRequired is the escalating spend threshold for a cabin occupied for
// the given number of minutes.
func MinimumRequired(elapsedMinutes int) float64 {
	if elapsedMinutes < 0 {
		elapsedMinutes = 0
	}
	return float64(baseMinimumSpend + stepMinimumSpend*(elapsedMinutes/60))
}

// Evaluate computes a single cabin's status. Precedence: an active booking
// window overrides everything, high chairs use the two-state rule, and the
// minimum-spend escalation only applies once a dispatch time exists.
func Evaluate(in Input) Status {
	st := Status{Cabin: in.Cabin}

	var total float64
	var firstDispatch *time.Time
	for _, o := range in.Open {
		total += o.Total
		if o.Dispatch == orders.Dispatched && o.DispatchedAt != nil {
			if firstDispatch == nil || o.DispatchedAt.Before(*firstDispatch) {
				firstDispatch = o.DispatchedAt
			}
		}
		if o.Dispatch == orders.DispatchPending {
			st.HasUndispatched = true
		}
	}
	st.Total = total

	if active, ok := activeBooking(in.Bookings, in.Now); ok {
		st.booked = true
		st.Tier = TierBooked
		if len(in.Open) == 0 {
			st.Label = fmt.Sprintf("Vacant (Booked till %s)", active.EndTime)
		} else {
			st.occupied = true
			st.Label = fmt.Sprintf("Occupied (Booked till %s)", active.EndTime)
		}
		annotateNextBooking(&st, in)
		return st
	}

	if IsHighChair(in.Cabin) {
		if firstDispatch == nil {
			st.Label = "Vacant"
			st.Tier = TierVacant
			annotateVacantDwell(&st, in)
		} else {
			st.occupied = true
			st.Label = "Occupied"
			st.Tier = TierOccupied
		}
		annotateNextBooking(&st, in)
		return st
	}

	switch {
	case firstDispatch == nil && len(in.Open) == 0:
		st.Label = "Vacant"
		st.Tier = TierVacant
		annotateVacantDwell(&st, in)
	case firstDispatch == nil:
		// Orders exist but none dispatched yet; minimum-spend logic is
		// skipped because there is no dwell clock to measure against.
		st.occupied = true
		st.Label = "Occupied"
		st.Tier = TierOccupied
	default:
		st.occupied = true
		elapsed := int(in.Now.Sub(*firstDispatch).Minutes())
		required := MinimumRequired(elapsed)
		st.rankable = true
		st.ratio = total / required
		if elapsed > 60 && total < required {
			st.Label = "Occupied (Critical)"
			st.Tier = TierCritical
		} else {
			st.Label = "Occupied"
			st.Tier = TierOccupied
		}
	}

	annotateNextBooking(&st, in)
	return st
}

func activeBooking(list []bookings.Booking, now time.Time) (bookings.Booking, bool) {
	for _, b := range list {
		if b.Covers(now) {
			return b, true
		}
	}
	return bookings.Booking{}, false
}

func annotateNextBooking(st *Status, in Input) {
	var soonest *int
	for _, b := range in.Bookings {
		until, ok := b.StartsWithin(in.Now, BookingLookahead)
		if !ok {
			continue
		}
		minutes := int(until.Minutes())
		if soonest == nil || minutes < *soonest {
			soonest = &minutes
		}
	}
	st.MinutesToNextBooking = soonest
}

func annotateVacantDwell(st *Status, in Input) {
	if in.LastFulfilledAt == nil {
		return
	}
	minutes := int(in.Now.Sub(*in.LastFulfilledAt).Minutes())
	if minutes < 0 {
		return
	}
	st.VacantMinutes = &minutes
}

// Occupied reports whether the cabin currently has open orders seated,
// regardless of whether a booking window is also active.
func (st Status) Occupied() bool {
	return st.occupied
}

// Rank assigns dense competition ranks to occupied, non-booked cabins by
// ascending spend ratio: the most urgently underspending cabin is rank 1 and
// equal ratios share a rank. Vacant and booked cabins stay unranked.
func Rank(statuses []Status) {
	idx := make([]int, 0, len(statuses))
	for i := range statuses {
		if statuses[i].occupied && !statuses[i].booked && statuses[i].rankable {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return statuses[idx[a]].ratio < statuses[idx[b]].ratio
	})

	rank := 0
	var prev float64
	for n, i := range idx {
		if n == 0 || statuses[i].ratio != prev {
			rank++
		}
		statuses[i].Rank = rank
		prev = statuses[i].ratio
	}
}

// EvaluateAll evaluates every cabin of a location and orders the result for
// display: ranked occupied cabins first (most underspending on top), then
// occupied cabins without a dwell clock, then booked, then vacant.
func EvaluateAll(cabinNames []string, open []orders.Order, allBookings []bookings.Booking, lastFulfilled map[string]time.Time, now time.Time) []Status {
	openByCabin := make(map[string][]orders.Order)
	for _, o := range open {
		openByCabin[o.Cabin] = append(openByCabin[o.Cabin], o)
	}
	bookingsByCabin := make(map[string][]bookings.Booking)
	for _, b := range allBookings {
		bookingsByCabin[b.Cabin] = append(bookingsByCabin[b.Cabin], b)
	}

	statuses := make([]Status, 0, len(cabinNames))
	for _, name := range cabinNames {
		in := Input{
			Cabin:    name,
			Open:     openByCabin[name],
			Bookings: bookingsByCabin[name],
			Now:      now,
		}
		if at, ok := lastFulfilled[name]; ok {
			t := at
			in.LastFulfilledAt = &t
		}
		statuses = append(statuses, Evaluate(in))
	}

	Rank(statuses)

	sort.SliceStable(statuses, func(a, b int) bool {
		return displayGroup(statuses[a]) < displayGroup(statuses[b]) ||
			(displayGroup(statuses[a]) == displayGroup(statuses[b]) &&
				statuses[a].Rank != 0 && statuses[b].Rank != 0 &&
				statuses[a].Rank < statuses[b].Rank)
	})
	return statuses
}

func displayGroup(st Status) int {
	switch {
	case st.occupied && st.Rank != 0:
		return 0
	case st.occupied && !st.booked:
		return 1
	case st.booked:
		return 2
	default:
		return 3
	}
}
