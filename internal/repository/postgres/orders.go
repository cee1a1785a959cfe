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

const orderColumns = `id, vendor_id, customer_id, items, total, currency, order_type, payment_method,
	selected_payment_method, payment_proof, payment_proof_type, payment_id, payment_session_id,
	status, notes, customer_info, loyalty_points_earned, created_at, updated_at`

type OrderRepository struct {
	db *sql.DB
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	infoJSON, err := json.Marshal(order.CustomerInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal customer info: %w", err)
	}
	ev, err := repository.OrderEvent(repository.EventOrderCreated, order)
	if err != nil {
		return err
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, insertErr := tx.ExecContext(ctx, query,
			order.ID,
			order.VendorID,
			order.CustomerID,
			itemsJSON,
			order.Total,
			order.Currency,
			order.OrderType,
			order.PaymentMethod,
			order.SelectedPaymentMethod,
			order.PaymentProof,
			order.PaymentProofType,
			order.PaymentID,
			order.PaymentSessionID,
			order.Status,
			order.Notes,
			infoJSON,
			order.LoyaltyPointsEarned,
			order.CreatedAt,
			order.UpdatedAt)
		if insertErr != nil {
			if isUniqueViolation(insertErr) {
				return repository.ErrAlreadyExists
			}
			return fmt.Errorf("insert order: %w", insertErr)
		}
		return insertEvent(ctx, tx, ev)
	})
}

func (r *OrderRepository) Get(ctx context.Context, key repository.Key) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND vendor_id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, key.ID, key.VendorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) GetAll(ctx context.Context, vendorID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE vendor_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, vendorID)
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, vendorID, customerID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE vendor_id = $1 AND customer_id = $2 ORDER BY created_at DESC`
	return r.list(ctx, query, vendorID, customerID)
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return updateOrderTx(ctx, tx, order)
	})
}

func (r *OrderRepository) ClaimPaymentSession(ctx context.Context, key repository.Key, sessionID string) error {
	query := `UPDATE orders SET payment_session_id = '', updated_at = NOW()
	          WHERE id = $1 AND vendor_id = $2 AND status = $3 AND payment_session_id = $4 AND payment_session_id <> ''`

	res, err := r.db.ExecContext(ctx, query, key.ID, key.VendorID, domain.OrderStatusPendingPayment, sessionID)
	if err != nil {
		return fmt.Errorf("claim payment session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// updateOrderTx writes the mutable order fields and the matching outbox row.
func updateOrderTx(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	ev, err := repository.OrderEvent(repository.EventOrderStatusChanged, order)
	if err != nil {
		return err
	}

	query := `UPDATE orders SET status = $1, payment_id = $2, payment_session_id = $3, notes = $4, updated_at = $5
	          WHERE id = $6 AND vendor_id = $7`

	res, err := tx.ExecContext(ctx, query,
		order.Status,
		order.PaymentID,
		order.PaymentSessionID,
		order.Notes,
		order.UpdatedAt,
		order.ID,
		order.VendorID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return insertEvent(ctx, tx, ev)
}

func (r *OrderRepository) Delete(ctx context.Context, key repository.Key) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND vendor_id = $2`, key.ID, key.VendorID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON, infoJSON []byte
	err := row.Scan(
		&order.ID,
		&order.VendorID,
		&order.CustomerID,
		&itemsJSON,
		&order.Total,
		&order.Currency,
		&order.OrderType,
		&order.PaymentMethod,
		&order.SelectedPaymentMethod,
		&order.PaymentProof,
		&order.PaymentProofType,
		&order.PaymentID,
		&order.PaymentSessionID,
		&order.Status,
		&order.Notes,
		&infoJSON,
		&order.LoyaltyPointsEarned,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(infoJSON, &order.CustomerInfo); err != nil {
		return nil, fmt.Errorf("unmarshal customer info: %w", err)
	}
	return &order, nil
}
