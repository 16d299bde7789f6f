package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusPending is the initial state: the order row exists and a payment
	// request has been (or is being) issued, but no callback has arrived.
	StatusPending Status = "PENDING"
	// StatusProcessing means the payment succeeded and the order is being
	// fulfilled. Terminal for the webhook handler.
	StatusProcessing Status = "PROCESSING"
	// StatusFailed means the payment request could not be issued or the
	// provider reported the payment as failed. Terminal.
	StatusFailed Status = "FAILED"
)

// Order is a persisted purchase transaction. Totals are computed once at
// creation and never recomputed: GrandTotal = SubTotal + Tax, with Tax a
// fixed 10% of SubTotal.
type Order struct {
	ID                    string
	SubTotal              decimal.Decimal
	Tax                   decimal.Decimal
	GrandTotal            decimal.Decimal
	Status                Status
	PaidAt                *time.Time
	ExternalTransactionID string
	PaymentMethodID       string
	CreatedAt             time.Time
}

// Item is an immutable line item: the product's price at order time, not its
// live price.
type Item struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// LineInput is one requested line in an order creation request.
type LineInput struct {
	ProductID string
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateWithItems persists the order and all of its items in a single
	// transaction: either both land or neither does.
	CreateWithItems(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// SetPaymentReference stores the provider-assigned identifiers after a
	// payment request was issued.
	SetPaymentReference(ctx context.Context, id, externalTransactionID, paymentMethodID string) error
	// MarkPaid transitions a PENDING order to PROCESSING with the given paid
	// timestamp. It reports whether the transition was applied; false means
	// the order was not in PENDING (a redelivered callback) and nothing
	// changed.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
	// MarkFailed transitions a PENDING order to FAILED. Orders already past
	// PENDING are left untouched.
	MarkFailed(ctx context.Context, id string) error
}
