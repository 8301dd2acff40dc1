package currency

import (
	"context"
	"database/sql"
	"strings"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByISO(ctx context.Context, iso string) (*Currency, error) {
	c := &Currency{}
	err := r.db.QueryRowContext(ctx, `
		SELECT iso, rate, is_primary FROM payment_currencies WHERE iso=$1`,
		strings.ToUpper(iso)).Scan(&c.ISO, &c.Rate, &c.IsPrimary)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresRepo) GetPrimary(ctx context.Context) (*Currency, error) {
	c := &Currency{}
	err := r.db.QueryRowContext(ctx, `
		SELECT iso, rate, is_primary FROM payment_currencies WHERE is_primary=true`).
		Scan(&c.ISO, &c.Rate, &c.IsPrimary)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
