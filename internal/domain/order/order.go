// Package order records the result of a checkout.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
)

// Order is a snapshot of the cart at the moment of checkout.
type Order struct {
	ID        string
	Items     []Item
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Item is one ordered line. The JSON field names form the stored layout.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Repository persists completed orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
}

// FromCart builds an order snapshot from the current cart contents and
// totals, assigning a fresh id.
func FromCart(items []cart.LineItem, totals cart.Totals) *Order {
	ordered := make([]Item, len(items))
	for i, it := range items {
		ordered[i] = Item{
			ProductID: it.ID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
	}
	return &Order{
		ID:       uuid.New().String(),
		Items:    ordered,
		Subtotal: totals.Subtotal,
		Shipping: totals.Shipping,
		Total:    totals.Total,
	}
}
