package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrCategoryMissing is returned when creating or updating a product that
// references a nonexistent category.
var ErrCategoryMissing = errors.New("product category does not exist")

// Product represents a catalog item available for sale. Price is an amount
// in the smallest currency unit.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	ImageURL   string
	CategoryID string
	// CategoryName is populated on reads that join the category.
	CategoryName string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
