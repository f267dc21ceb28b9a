package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Caller struct {
	ID       int64  `json:"id"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Active   bool   `json:"active"`
}

type CallerStore struct {
	db *pgxpool.Pool
}

func NewCallerStore(db *pgxpool.Pool) *CallerStore {
	return &CallerStore{db: db}
}

func (s *CallerStore) List(ctx context.Context, location string) ([]Caller, error) {
	rows, err := s.db.Query(ctx, `
		select id, location, phone, active
		from callers
		where location = $1
		order by id
	`, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Caller
	for rows.Next() {
		var c Caller
		if err := rows.Scan(&c.ID, &c.Location, &c.Phone, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CallerStore) Active(ctx context.Context, location string) (Caller, error) {
	rows, err := s.db.Query(ctx, `
		select id, location, phone, active
		from callers
		where location = $1 and active
		limit 1
	`, location)
	if err != nil {
		return Caller{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return Caller{}, ErrNoRows
	}
	var c Caller
	if err := rows.Scan(&c.ID, &c.Location, &c.Phone, &c.Active); err != nil {
		return Caller{}, err
	}
	return c, nil
}

// SetActive makes phone the branch's single active caller by clearing every
// flag in the branch first, inside one transaction. There is no unique
// constraint backing this; clear-then-set is the whole enforcement.
func (s *CallerStore) SetActive(ctx context.Context, location, phone string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `update callers set active = false where location = $1`, location); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		update callers set active = true
		where location = $1 and phone = $2
	`, location, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, `
			insert into callers (location, phone, active) values ($1, $2, true)
		`, location, phone); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
