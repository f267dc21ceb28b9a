package store

import (
	"context"
	"time"

	"cabin-order-services/internal/ledger"
	"cabin-order-services/internal/utils"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerStore struct {
	db *pgxpool.Pool
}

func NewLedgerStore(db *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{db: db}
}

// Append writes a new entry. There is no update or delete path anywhere in
// this store; corrections are appended entries.
func (s *LedgerStore) Append(ctx context.Context, e *ledger.Entry) error {
	query := `
		insert into ledger_entries (location, category, amount, comment, created_at)
		values ($1, $2, $3, $4, now())
		returning id, created_at
	`
	return s.db.QueryRow(ctx, query,
		e.Location, string(e.Category), e.Amount, e.Comment,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *LedgerStore) Since(ctx context.Context, location string, since time.Time) ([]ledger.Entry, error) {
	rows, err := s.db.Query(ctx, `
		select id, location, category, amount, comment, created_at
		from ledger_entries
		where location = $1 and created_at >= $2
		order by created_at
	`, location, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var category string
		var amount pgtype.Numeric
		if err := rows.Scan(&e.ID, &e.Location, &category, &amount, &e.Comment, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Category = ledger.Category(category)
		e.Amount = utils.NumericToFloat64(amount)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllTimeTotals returns the running sums the counter-balance formula needs:
// extra cash collected, total expenses paid out, and UPI received.
func (s *LedgerStore) AllTimeTotals(ctx context.Context, location string) (extraCash, expenses, upi float64, err error) {
	var extraCashN, expensesN, upiN pgtype.Numeric
	err = s.db.QueryRow(ctx, `
		select
			coalesce(sum(amount) filter (where category = 'Extra Cash Payment'), 0),
			coalesce(sum(amount) filter (where category not in
				('UPI Payment', 'Extra Cash Payment', 'Extra UPI Payment', 'Opening Cash')), 0),
			coalesce(sum(amount) filter (where category in
				('UPI Payment', 'Extra UPI Payment')), 0)
		from ledger_entries
		where location = $1
	`, location).Scan(&extraCashN, &expensesN, &upiN)
	if err != nil {
		return 0, 0, 0, err
	}
	return utils.NumericToFloat64(extraCashN),
		utils.NumericToFloat64(expensesN),
		utils.NumericToFloat64(upiN), nil
}
