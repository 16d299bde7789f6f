// Package cart implements the ephemeral, session-scoped cart a client
// assembles before checkout. A Cart is a plain value object: it is built per
// request or per session, never persisted, and never shared between sessions.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/adiwarna/kasir-pos/internal/domain/order"
)

// Item is a single cart line: a product snapshot plus a quantity.
type Item struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Quantity  int
}

// Cart aggregates selected products into line items. The zero value is an
// empty, usable cart.
type Cart struct {
	items []Item
	index map[string]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add puts a product into the cart with quantity 1. Adding a product that is
// already present increments its quantity instead of appending a duplicate
// line, so the cart always holds at most one line per product.
func (c *Cart) Add(productID, name string, price decimal.Decimal, imageURL string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[productID]; ok {
		c.items[i].Quantity++
		return
	}
	c.index[productID] = len(c.items)
	c.items = append(c.items, Item{
		ProductID: productID,
		Name:      name,
		Price:     price,
		ImageURL:  imageURL,
		Quantity:  1,
	})
}

// Items returns the cart lines in insertion order.
func (c *Cart) Items() []Item {
	return c.items
}

// SubTotal sums price × quantity over all lines.
func (c *Cart) SubTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Lines converts the cart into order line inputs for checkout.
func (c *Cart) Lines() []order.LineInput {
	lines := make([]order.LineInput, len(c.items))
	for i, it := range c.items {
		lines[i] = order.LineInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return lines
}
