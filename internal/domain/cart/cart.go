// Package cart implements the storefront shopping cart: an ordered list of
// line items owned by a single engine, written through to a Store after
// every mutation.
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Shipping is the flat charge added to the subtotal of any non-empty cart.
var Shipping = decimal.New(500, -2)

// LineItem is one distinct product entry in the cart. The JSON field names
// form the persisted state layout and must stay stable.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Totals holds the computed cart totals. An empty cart reports zero for all
// three fields; shipping is only charged when something is in the cart.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Store persists the full cart as a single value under a fixed key.
//
// Load returns a nil or empty slice when nothing was saved yet or when the
// stored value cannot be decoded; corrupt state is discarded, not surfaced.
// Save overwrites the stored value with the complete item list.
type Store interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
}
