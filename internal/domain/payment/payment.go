// Package payment defines the outbound port to the external QR payment
// provider. The provider is the source of truth for payment completion; this
// system only stores the linkage needed to correlate callbacks to orders.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateQRRequest asks the provider for a one-time-use QR payment.
type CreateQRRequest struct {
	// Amount to collect, in the smallest currency unit.
	Amount decimal.Decimal
	// OrderID is used as the provider reference_id so the webhook callback
	// can be correlated back to the order.
	OrderID string
	// ExpiresAt bounds the QR validity. Zero means the gateway default
	// (15 minutes from now).
	ExpiresAt time.Time
}

// QRPayment holds the provider-assigned identifiers for an issued payment
// request. QRString is the scannable payload and may be empty when the
// provider omits it.
type QRPayment struct {
	ID              string
	PaymentMethodID string
	QRString        string
	Status          string
}

// Gateway issues QR payment requests against the external provider.
type Gateway interface {
	CreateQRPayment(ctx context.Context, req CreateQRRequest) (*QRPayment, error)
}

// GatewayError indicates the provider rejected or failed a payment request.
// It always means the caller must abort or compensate, never silently
// succeed.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment gateway: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("payment gateway: %s (http %d)", e.Message, e.StatusCode)
}
