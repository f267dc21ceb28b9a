package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cabin-order-services/internal/orders"
	"cabin-order-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoRows = errors.New("no matching rows")

type OrderStore struct {
	db *pgxpool.Pool
}

func NewOrderStore(db *pgxpool.Pool) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `
	id, location, cabin, items, total, promo_code, promo_percent,
	phone, customer_name, dispatch_status, payment_status, load_state,
	created_at, dispatched_at, fulfilled_at, rejected_at
`

func (s *OrderStore) Insert(ctx context.Context, o *orders.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	query := `
		insert into orders (
			location, cabin, items, total, promo_code, promo_percent,
			phone, customer_name, dispatch_status, payment_status, load_state, created_at
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		returning id, created_at
	`
	return s.db.QueryRow(ctx, query,
		o.Location, o.Cabin, items, o.Total, o.PromoCode, o.PromoPercent,
		o.Phone, o.CustomerName, string(o.Dispatch), string(o.Payment), string(o.Load),
	).Scan(&o.ID, &o.CreatedAt)
}

// FetchOrders returns today's orders plus pay-later carryovers: orders from
// before dayStart that were dispatched but never fulfilled.
func (s *OrderStore) FetchOrders(ctx context.Context, location string, dayStart time.Time) (current, payLater []orders.Order, err error) {
	query := `
		select ` + orderColumns + `
		from orders
		where location = $1 and (
			created_at >= $2
			or (dispatch_status = 'dispatched' and payment_status = 'pending')
		)
		order by created_at
	`
	rows, err := s.db.Query(ctx, query, location, dayStart)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, nil, scanErr
		}
		if o.CreatedAt.Before(dayStart) {
			payLater = append(payLater, o)
		} else {
			current = append(current, o)
		}
	}
	return current, payLater, rows.Err()
}

func (s *OrderStore) ByID(ctx context.Context, id int64) (orders.Order, error) {
	query := `select ` + orderColumns + ` from orders where id = $1`
	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return orders.Order{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return orders.Order{}, ErrNoRows
	}
	return scanOrder(rows)
}

// ByPhoneSince powers bill lookup. An empty result is a valid answer, not
// an error.
func (s *OrderStore) ByPhoneSince(ctx context.Context, location, phone string, since time.Time) ([]orders.Order, error) {
	query := `
		select ` + orderColumns + `
		from orders
		where location = $1 and phone = $2 and created_at >= $3
		order by created_at
	`
	rows, err := s.db.Query(ctx, query, location, phone, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *OrderStore) Dispatch(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `
		update orders
		set dispatch_status = 'dispatched', dispatched_at = now()
		where id = $1 and dispatch_status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Fulfill marks payment settled. Only dispatched, unfulfilled orders
// qualify; the failing update preserves the fulfilled-implies-dispatched
// invariant.
func (s *OrderStore) Fulfill(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `
		update orders
		set payment_status = 'fulfilled', fulfilled_at = now()
		where id = $1 and dispatch_status = 'dispatched' and payment_status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Reject closes both axes at once and zeroes the total. Rejection is the
// one transition allowed to bypass dispatch.
func (s *OrderStore) Reject(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `
		update orders
		set dispatch_status = 'rejected', payment_status = 'rejected',
		    total = 0, rejected_at = now()
		where id = $1 and payment_status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// RemoveItems drops line items by index and subtracts their fixed totals.
// Removing everything is refused; that case is a reject, not an edit.
func (s *OrderStore) RemoveItems(ctx context.Context, id int64, indices []int) (orders.Order, error) {
	o, err := s.ByID(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}

	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(o.Items) {
			return orders.Order{}, fmt.Errorf("item index %d out of range", i)
		}
		drop[i] = true
	}
	if len(drop) == 0 {
		return orders.Order{}, errors.New("no items to remove")
	}
	if len(drop) >= len(o.Items) {
		return orders.Order{}, errors.New("cannot remove every item; reject the order instead")
	}

	kept := make([]orders.LineItem, 0, len(o.Items)-len(drop))
	total := 0.0
	for i, item := range o.Items {
		if drop[i] {
			continue
		}
		kept = append(kept, item)
		total += item.Total
	}

	items, err := json.Marshal(kept)
	if err != nil {
		return orders.Order{}, err
	}
	_, err = s.db.Exec(ctx, `update orders set items = $2, total = $3 where id = $1`,
		id, items, utils.Round2(total))
	if err != nil {
		return orders.Order{}, err
	}

	o.Items = kept
	o.Total = utils.Round2(total)
	return o, nil
}

func (s *OrderStore) MarkLoaded(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		update orders set load_state = 'loaded'
		where id = any($1) and load_state = 'pending'
	`, ids)
	return err
}

// FulfilledTotalSince sums settled revenue from the given instant, for the
// daily summary. Passing the zero time yields the all-time total.
func (s *OrderStore) FulfilledTotalSince(ctx context.Context, location string, since time.Time) (float64, error) {
	var total pgtype.Numeric
	err := s.db.QueryRow(ctx, `
		select coalesce(sum(total), 0)
		from orders
		where location = $1 and payment_status = 'fulfilled' and created_at >= $2
	`, location, since).Scan(&total)
	if err != nil {
		return 0, err
	}
	return utils.NumericToFloat64(total), nil
}

// LastFulfilledByCabin feeds the vacant-dwell annotation.
func (s *OrderStore) LastFulfilledByCabin(ctx context.Context, location string) (map[string]time.Time, error) {
	rows, err := s.db.Query(ctx, `
		select cabin, max(fulfilled_at)
		from orders
		where location = $1 and payment_status = 'fulfilled' and fulfilled_at is not null
		group by cabin
	`, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var cabin string
		var at time.Time
		if err := rows.Scan(&cabin, &at); err != nil {
			return nil, err
		}
		out[cabin] = at
	}
	return out, rows.Err()
}

func scanOrder(rows pgx.Rows) (orders.Order, error) {
	var o orders.Order
	var items []byte
	var total pgtype.Numeric
	var promoCode, dispatchStatus, paymentStatus, loadState pgtype.Text
	var promoPercent pgtype.Int4
	var dispatchedAt, fulfilledAt, rejectedAt pgtype.Timestamptz

	err := rows.Scan(
		&o.ID, &o.Location, &o.Cabin, &items, &total, &promoCode, &promoPercent,
		&o.Phone, &o.CustomerName, &dispatchStatus, &paymentStatus, &loadState,
		&o.CreatedAt, &dispatchedAt, &fulfilledAt, &rejectedAt,
	)
	if err != nil {
		return orders.Order{}, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return orders.Order{}, err
		}
	}
	o.Total = utils.NumericToFloat64(total)
	if promoCode.Valid {
		o.PromoCode = &promoCode.String
	}
	if promoPercent.Valid {
		o.PromoPercent = &promoPercent.Int32
	}
	if dispatchStatus.Valid {
		o.Dispatch = orders.DispatchStatus(dispatchStatus.String)
	}
	if paymentStatus.Valid {
		o.Payment = orders.PaymentStatus(paymentStatus.String)
	}
	if loadState.Valid {
		o.Load = orders.LoadState(loadState.String)
	}
	if dispatchedAt.Valid {
		o.DispatchedAt = &dispatchedAt.Time
	}
	if fulfilledAt.Valid {
		o.FulfilledAt = &fulfilledAt.Time
	}
	if rejectedAt.Valid {
		o.RejectedAt = &rejectedAt.Time
	}
	return o, nil
}
