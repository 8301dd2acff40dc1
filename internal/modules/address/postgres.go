package address

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Address, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	a := &Address{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id,first_name,last_name,line1,line2,city,region,post_code,country,phone,created_at,updated_at
		FROM addresses WHERE id=$1`, uid).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Line1, &a.Line2, &a.City,
		&a.Region, &a.PostCode, &a.Country, &a.Phone, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) Create(ctx context.Context, a *Address) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses
		  (id, first_name, last_name, line1, line2, city, region, post_code, country, phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.FirstName, a.LastName, a.Line1, a.Line2, a.City,
		a.Region, a.PostCode, a.Country, a.Phone)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}
