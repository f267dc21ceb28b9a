package bookings

import "time"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Booking struct {
	ID           int64     `json:"id"`
	Location     string    `json:"location"`
	Cabin        string    `json:"cabin"`
	Date         string    `json:"date"` // "2006-01-02"
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	CustomerName string    `json:"customerName"`
	Phone        string    `json:"phone"`
	FinalPrice   float64   `json:"finalPrice"`
	PromoCode    *string   `json:"promoCode,omitempty"`
	Notified     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// window resolves the booking to absolute start/end instants in now's
// location. A malformed date or time yields ok=false and the booking is
// treated as never active.
func (b Booking) window(now time.Time) (start, end time.Time, ok bool) {
	day, err := time.ParseInLocation(dateLayout, b.Date, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	st, err := time.ParseInLocation(timeLayout, b.StartTime, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	en, err := time.ParseInLocation(timeLayout, b.EndTime, now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start = time.Date(day.Year(), day.Month(), day.Day(), st.Hour(), st.Minute(), 0, 0, now.Location())
	end = time.Date(day.Year(), day.Month(), day.Day(), en.Hour(), en.Minute(), 0, 0, now.Location())
	return start, end, true
}

// Covers reports whether now falls inside the booking window.
func (b Booking) Covers(now time.Time) bool {
	start, end, ok := b.window(now)
	if !ok {
		return false
	}
	return !now.Before(start) && now.Before(end)
}

// StartsWithin returns how long until the booking starts, if that is a
// positive duration no greater than lookahead.
func (b Booking) StartsWithin(now time.Time, lookahead time.Duration) (time.Duration, bool) {
	start, _, ok := b.window(now)
	if !ok {
		return 0, false
	}
	until := start.Sub(now)
	if until <= 0 || until > lookahead {
		return 0, false
	}
	return until, true
}
