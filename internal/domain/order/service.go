package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adiwarna/kasir-pos/internal/domain/payment"
	"github.com/adiwarna/kasir-pos/internal/domain/product"
)

// taxRate is the fixed sales tax applied to every order.
var taxRate = decimal.NewFromFloat(0.10)

// Sentinel errors for order validation.
var (
	ErrEmptyItems = fmt.Errorf("items required")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// DuplicateProductError indicates the same product appears twice in one
// request. Requests must carry one line per product; merging silently would
// hide client bugs.
type DuplicateProductError struct {
	ProductID string
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product %s appears more than once", e.ProductID)
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	Items []LineInput
}

// CreateResult holds the output of a successfully created order. QRString is
// the scannable payment payload, empty when the provider omitted it.
type CreateResult struct {
	Order    *Order
	Items    []Item
	QRString string
}

// Service encapsulates order creation business logic.
type Service struct {
	products product.Repository
	orders   Repository
	gateway  payment.Gateway

	now func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(products product.Repository, orders Repository, gateway payment.Gateway) *Service {
	return &Service{
		products: products,
		orders:   orders,
		gateway:  gateway,
		now:      time.Now,
	}
}

// Create validates the requested lines, fetches products in a single batch,
// computes totals (tax fixed at 10%), persists the order with its item
// snapshots in one transaction, and requests a QR payment for the grand
// total.
//
// Product lookups happen before any persistence: a missing product aborts
// with no partial effects. A gateway failure after persistence moves the
// order to FAILED rather than leaving it silently pending, and is returned
// as a payment.GatewayError.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities, reject duplicates, collect product IDs.
	ids := make([]string, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	for i, line := range req.Items {
		if line.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}
		if _, dup := seen[line.ProductID]; dup {
			return nil, &DuplicateProductError{ProductID: line.ProductID}
		}
		seen[line.ProductID] = struct{}{}
		ids[i] = line.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Build item snapshots and the subtotal. Every requested product must
	// have been found.
	orderID := uuid.New().String()
	items := make([]Item, len(req.Items))
	subTotal := decimal.Zero
	for i, line := range req.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		items[i] = Item{
			OrderID:   orderID,
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  line.Quantity,
		}
		subTotal = subTotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// Totals are fixed here, once. Tax rounds to the minor unit.
	tax := subTotal.Mul(taxRate).Round(2)
	o := &Order{
		ID:         orderID,
		SubTotal:   subTotal,
		Tax:        tax,
		GrandTotal: subTotal.Add(tax),
		Status:     StatusPending,
		CreatedAt:  s.now(),
	}

	// Order and items land atomically.
	if err := s.orders.CreateWithItems(ctx, o, items); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	qr, err := s.gateway.CreateQRPayment(ctx, payment.CreateQRRequest{
		Amount:  o.GrandTotal,
		OrderID: o.ID,
	})
	if err != nil {
		// The order row already exists; move it to a terminal state so it is
		// never left ambiguously pending. The failure itself still surfaces.
		if markErr := s.orders.MarkFailed(ctx, o.ID); markErr != nil {
			return nil, fmt.Errorf("mark order %s failed after gateway error %w: %v", o.ID, err, markErr)
		}
		o.Status = StatusFailed
		return nil, fmt.Errorf("request payment for order %s: %w", o.ID, err)
	}

	if err := s.orders.SetPaymentReference(ctx, o.ID, qr.ID, qr.PaymentMethodID); err != nil {
		return nil, fmt.Errorf("store payment reference: %w", err)
	}
	o.ExternalTransactionID = qr.ID
	o.PaymentMethodID = qr.PaymentMethodID

	return &CreateResult{
		Order:    o,
		Items:    items,
		QRString: qr.QRString,
	}, nil
}
