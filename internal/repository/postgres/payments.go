package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

const paymentColumns = `id, order_id, vendor_id, customer_id, amount, currency, gateway, status,
	transaction_id, failure_reason, gateway_response, refund_amount, created_at, updated_at`

type PaymentRepository struct {
	db *sql.DB
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertPaymentTx(ctx, tx, p)
	})
}

func (r *PaymentRepository) RecordAttempt(ctx context.Context, p *domain.Payment, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertPaymentTx(ctx, tx, p); err != nil {
			return err
		}
		return updateOrderTx(ctx, tx, order)
	})
}

func insertPaymentTx(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	responseJSON, err := marshalResponse(p.GatewayResponse)
	if err != nil {
		return err
	}
	ev, err := repository.PaymentEvent(p)
	if err != nil {
		return err
	}

	query := `INSERT INTO payments (` + paymentColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.ExecContext(ctx, query,
		p.ID,
		p.OrderID,
		p.VendorID,
		p.CustomerID,
		p.Amount,
		p.Currency,
		p.Gateway,
		p.Status,
		p.TransactionID,
		p.FailureReason,
		responseJSON,
		p.RefundAmount,
		p.CreatedAt,
		p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return insertEvent(ctx, tx, ev)
}

func (r *PaymentRepository) Get(ctx context.Context, key repository.Key) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND vendor_id = $2`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, key.ID, key.VendorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by id: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetAll(ctx context.Context, vendorID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE vendor_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, vendorID)
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, vendorID, orderID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE vendor_id = $1 AND order_id = $2 ORDER BY created_at DESC`
	return r.list(ctx, query, vendorID, orderID)
}

// Update persists status and refund fields; the attempt's amount, gateway
// and transaction id are immutable.
func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `UPDATE payments SET status = $1, failure_reason = $2, refund_amount = $3, updated_at = $4
	          WHERE id = $5 AND vendor_id = $6`

	res, err := r.db.ExecContext(ctx, query, p.Status, p.FailureReason, p.RefundAmount, p.UpdatedAt, p.ID, p.VendorID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, key repository.Key) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND vendor_id = $2`, key.ID, key.VendorID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var responseJSON []byte
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.VendorID,
		&p.CustomerID,
		&p.Amount,
		&p.Currency,
		&p.Gateway,
		&p.Status,
		&p.TransactionID,
		&p.FailureReason,
		&responseJSON,
		&p.RefundAmount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(responseJSON) > 0 {
		if err := json.Unmarshal(responseJSON, &p.GatewayResponse); err != nil {
			return nil, fmt.Errorf("unmarshal gateway response: %w", err)
		}
	}
	return &p, nil
}

func marshalResponse(resp map[string]string) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gateway response: %w", err)
	}
	return data, nil
}
