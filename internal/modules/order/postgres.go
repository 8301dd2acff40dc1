package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id,number,is_completed,customer_id,email,currency,payment_currency,locale,last_ip,
	       gateway_id,payment_source_id,billing_address_id,shipping_address_id,
	       outstanding_balance,total_qty,adjustment_count,return_url,cancel_url,custom_fields,
	       version,created_at,updated_at`

func (r *postgresRepo) GetActiveByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE number=$1 AND is_completed=false`, number)
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE number=$1`, number)
}

// Save recomputes the order's totals from its line items, adjustments and
// successful transactions, then writes the row with a version CAS.
func (r *postgresRepo) Save(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	var itemTotal float64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity),0), COALESCE(SUM(quantity*unit_price),0)
		FROM order_line_items WHERE order_id=$1`, o.ID).Scan(&o.TotalQty, &itemTotal)
	if err != nil {
		return fmt.Errorf("recompute line items: %w", err)
	}

	var adjTotal float64
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount),0)
		FROM order_adjustments WHERE order_id=$1`, o.ID).Scan(&o.AdjustmentCount, &adjTotal)
	if err != nil {
		return fmt.Errorf("recompute adjustments: %w", err)
	}

	var paid float64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount),0)
		FROM transactions WHERE order_number=$1 AND status='success'`, o.Number).Scan(&paid)
	if err != nil {
		return fmt.Errorf("recompute payments: %w", err)
	}
	o.OutstandingBalance = itemTotal + adjTotal - paid

	var gatewayID sql.NullString
	var sourceID uuid.NullUUID
	switch o.Method.Kind {
	case PayByGateway:
		gatewayID = sql.NullString{String: o.Method.GatewayID, Valid: true}
	case PayByStoredSource:
		sourceID = uuid.NullUUID{UUID: o.Method.PaymentSourceID, Valid: true}
	}

	fields, err := json.Marshal(o.Fields)
	if err != nil {
		return fmt.Errorf("marshal custom fields: %w", err)
	}

	if o.Version == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders
			  (id, number, is_completed, customer_id, email, currency, payment_currency, locale, last_ip,
			   gateway_id, payment_source_id, billing_address_id, shipping_address_id,
			   outstanding_balance, total_qty, adjustment_count, return_url, cancel_url, custom_fields, version)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,1)`,
			o.ID, o.Number, o.IsCompleted, o.CustomerID, o.Email, o.Currency, o.PaymentCurrency,
			o.Locale, o.LastIP, gatewayID, sourceID, o.BillingAddressID, o.ShippingAddressID,
			o.OutstandingBalance, o.TotalQty, o.AdjustmentCount, o.ReturnURL, o.CancelURL, fields)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		o.Version = 1
		return tx.Commit()
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
		  is_completed=$1, customer_id=$2, email=$3, currency=$4, payment_currency=$5, locale=$6,
		  last_ip=$7, gateway_id=$8, payment_source_id=$9, billing_address_id=$10, shipping_address_id=$11,
		  outstanding_balance=$12, total_qty=$13, adjustment_count=$14, return_url=$15, cancel_url=$16,
		  custom_fields=$17, version=version+1, updated_at=now()
		WHERE number=$18 AND version=$19`,
		o.IsCompleted, o.CustomerID, o.Email, o.Currency, o.PaymentCurrency, o.Locale,
		o.LastIP, gatewayID, sourceID, o.BillingAddressID, o.ShippingAddressID,
		o.OutstandingBalance, o.TotalQty, o.AdjustmentCount, o.ReturnURL, o.CancelURL,
		fields, o.Number, o.Version)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	o.Version++
	return tx.Commit()
}

func (r *postgresRepo) DeleteIncompleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE is_completed=false AND updated_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge incomplete orders: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) getOne(ctx context.Context, query, number string) (*Order, error) {
	o := &Order{}
	var customerID, billingID, shippingID uuid.NullUUID
	var gatewayID, sourceID sql.NullString
	var email, paymentCurrency, lastIP, returnURL, cancelURL sql.NullString
	var fields []byte

	err := r.db.QueryRowContext(ctx, query, number).Scan(
		&o.ID, &o.Number, &o.IsCompleted, &customerID, &email, &o.Currency, &paymentCurrency,
		&o.Locale, &lastIP, &gatewayID, &sourceID, &billingID, &shippingID,
		&o.OutstandingBalance, &o.TotalQty, &o.AdjustmentCount, &returnURL, &cancelURL, &fields,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		o.CustomerID = &customerID.UUID
	}
	if billingID.Valid {
		o.BillingAddressID = &billingID.UUID
	}
	if shippingID.Valid {
		o.ShippingAddressID = &shippingID.UUID
	}
	o.Email = email.String
	o.PaymentCurrency = paymentCurrency.String
	o.LastIP = lastIP.String
	o.ReturnURL = returnURL.String
	o.CancelURL = cancelURL.String

	switch {
	case sourceID.Valid:
		sid, err := uuid.Parse(sourceID.String)
		if err != nil {
			return nil, fmt.Errorf("parse payment_source_id: %w", err)
		}
		o.Method = StoredSourceMethod(sid)
	case gatewayID.Valid:
		o.Method = GatewayMethod(gatewayID.String)
	}

	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &o.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal custom fields: %w", err)
		}
	}
	return o, nil
}
