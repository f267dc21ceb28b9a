package store

import (
	"context"

	"cabin-order-services/internal/bookings"
	"cabin-order-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingStore struct {
	db *pgxpool.Pool
}

func NewBookingStore(db *pgxpool.Pool) *BookingStore {
	return &BookingStore{db: db}
}

const bookingColumns = `
	id, location, cabin, booking_date::text, start_time, end_time,
	customer_name, phone, final_price, promo_code, notified,
	created_at, updated_at
`

func (s *BookingStore) Insert(ctx context.Context, b *bookings.Booking) error {
	query := `
		insert into bookings (
			location, cabin, booking_date, start_time, end_time,
			customer_name, phone, final_price, promo_code, notified,
			created_at, updated_at
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, now(), now())
		returning id, created_at, updated_at
	`
	return s.db.QueryRow(ctx, query,
		b.Location, b.Cabin, b.Date, b.StartTime, b.EndTime,
		b.CustomerName, b.Phone, b.FinalPrice, b.PromoCode,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// FetchFrom lists bookings for a location from a calendar date onward.
func (s *BookingStore) FetchFrom(ctx context.Context, location, fromDate string) ([]bookings.Booking, error) {
	query := `
		select ` + bookingColumns + `
		from bookings
		where location = $1 and booking_date >= $2
		order by booking_date, start_time
	`
	rows, err := s.db.Query(ctx, query, location, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bookings.Booking
	for rows.Next() {
		b, scanErr := scanBooking(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ForDate lists one calendar day's bookings, used by availability checks.
func (s *BookingStore) ForDate(ctx context.Context, location, date string) ([]bookings.Booking, error) {
	query := `
		select ` + bookingColumns + `
		from bookings
		where location = $1 and booking_date = $2
		order by start_time
	`
	rows, err := s.db.Query(ctx, query, location, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bookings.Booking
	for rows.Next() {
		b, scanErr := scanBooking(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Modify moves a booking to a new date/slot. The notified flag resets so
// the upcoming-booking alert can fire again for the new window.
func (s *BookingStore) Modify(ctx context.Context, id int64, date string, slot bookings.Slot) error {
	tag, err := s.db.Exec(ctx, `
		update bookings
		set booking_date = $2, start_time = $3, end_time = $4,
		    notified = false, updated_at = now()
		where id = $1
	`, id, date, slot.Start, slot.End)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (s *BookingStore) ByID(ctx context.Context, id int64) (bookings.Booking, error) {
	query := `select ` + bookingColumns + ` from bookings where id = $1`
	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return bookings.Booking{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return bookings.Booking{}, ErrNoRows
	}
	return scanBooking(rows)
}

func (s *BookingStore) MarkNotified(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		update bookings set notified = true, updated_at = now()
		where id = any($1) and not notified
	`, ids)
	return err
}

func scanBooking(rows pgx.Rows) (bookings.Booking, error) {
	var b bookings.Booking
	var price pgtype.Numeric
	var promoCode pgtype.Text

	err := rows.Scan(
		&b.ID, &b.Location, &b.Cabin, &b.Date, &b.StartTime, &b.EndTime,
		&b.CustomerName, &b.Phone, &price, &promoCode, &b.Notified,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return bookings.Booking{}, err
	}
	b.FinalPrice = utils.NumericToFloat64(price)
	if promoCode.Valid {
		b.PromoCode = &promoCode.String
	}
	return b, nil
}
