package category

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested category does not exist.
var ErrNotFound = errors.New("category not found")

// ErrInUse is returned when deleting a category that still has products.
var ErrInUse = errors.New("category has products")

// Category groups products in the catalog. ProductCount is derived from the
// products table, never stored.
type Category struct {
	ID           string
	Name         string
	ProductCount int
}

// Repository defines persistence operations for categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}
