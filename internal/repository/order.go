package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adiwarna/kasir-pos/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, sub_total, tax, grand_total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderByIDSQL = `SELECT id, sub_total, tax, grand_total, status, paid_at,
		external_transaction_id, payment_method_id, created_at
		FROM orders WHERE id = $1`

	setPaymentReferenceSQL = `UPDATE orders
		SET external_transaction_id = $2, payment_method_id = $3
		WHERE id = $1`

	// Status transitions are guarded on the current status so redelivered
	// callbacks and races resolve to a no-op instead of a double write.
	markPaidSQL = `UPDATE orders SET status = $2, paid_at = $3
		WHERE id = $1 AND status = $4`

	markFailedSQL = `UPDATE orders SET status = $2
		WHERE id = $1 AND status = $3`
)

// ErrOrderNotFound is returned when a requested order does not exist.
var ErrOrderNotFound = errors.New("order not found")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateWithItems persists the order row and all item snapshots inside one
// transaction, so an order can never exist without its items.
func (r *OrderRepository) CreateWithItems(ctx context.Context, o *order.Order, items []order.Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.SubTotal, o.Tax, o.GrandTotal, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	rows := make([][]any, len(items))
	for i, it := range items {
		rows[i] = []any{it.OrderID, it.ProductID, it.Price, it.Quantity}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "product_id", "price", "quantity"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("creating items for order %q: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := r.pool.QueryRow(ctx, getOrderByIDSQL, id).Scan(
		&o.ID, &o.SubTotal, &o.Tax, &o.GrandTotal, &status, &o.PaidAt,
		&o.ExternalTransactionID, &o.PaymentMethodID, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o.Status = order.Status(status)
	return &o, nil
}

// SetPaymentReference stores the provider-assigned payment identifiers.
func (r *OrderRepository) SetPaymentReference(ctx context.Context, id, externalTransactionID, paymentMethodID string) error {
	tag, err := r.pool.Exec(ctx, setPaymentReferenceSQL, id, externalTransactionID, paymentMethodID)
	if err != nil {
		return fmt.Errorf("storing payment reference for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkPaid transitions a PENDING order to PROCESSING. It reports false when
// the order was not PENDING, which makes redelivered success callbacks
// harmless.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, markPaidSQL,
		id, string(order.StatusProcessing), paidAt, string(order.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("marking order %q paid: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed transitions a PENDING order to FAILED. Orders already past
// PENDING keep their state.
func (r *OrderRepository) MarkFailed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, markFailedSQL,
		id, string(order.StatusFailed), string(order.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("marking order %q failed: %w", id, err)
	}
	return nil
}
