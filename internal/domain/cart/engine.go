package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine owns the in-memory cart state for the process. HTTP handlers run
// concurrently, so mutations are serialized with a mutex; each mutation is
// synchronously written through to the Store before the engine returns.
// Save failures are logged and do not roll back the in-memory change.
type Engine struct {
	store Store
	lg    *zap.Logger

	mu    sync.Mutex
	items []LineItem
}

// NewEngine creates an empty cart engine backed by the given store.
// Call Hydrate to pick up previously persisted state.
func NewEngine(store Store, lg *zap.Logger) *Engine {
	return &Engine{store: store, lg: lg}
}

// Hydrate replaces the in-memory state with whatever the store has saved.
// A store with no (or undecodable) saved state yields an empty cart.
func (e *Engine) Hydrate(ctx context.Context) error {
	items, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	return nil
}

// AddParams describes the product behind an add-to-cart action.
type AddParams struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
}

// Add appends a new line item with quantity 1, or increments the quantity
// of the existing item with the same id; the cart never holds two entries
// for one product. An empty id gets a generated fallback so the item stays
// addressable. The resulting item is returned for confirmation display.
func (e *Engine) Add(ctx context.Context, p AddParams) LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	for i := range e.items {
		if e.items[i].ID == p.ID {
			e.items[i].Quantity++
			item := e.items[i]
			e.persist(ctx)
			return item
		}
	}

	item := LineItem{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	}
	e.items = append(e.items, item)
	e.persist(ctx)
	return item
}

// Increment raises the quantity of the matching item by one.
// Unknown ids are a no-op.
func (e *Engine) Increment(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.items {
		if e.items[i].ID == id {
			e.items[i].Quantity++
			e.persist(ctx)
			return
		}
	}
}

// Decrement lowers the quantity of the matching item by one. At quantity 1
// the item is removed entirely, so a zero quantity is never observable.
// Unknown ids are a no-op.
func (e *Engine) Decrement(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.items {
		if e.items[i].ID != id {
			continue
		}
		if e.items[i].Quantity > 1 {
			e.items[i].Quantity--
		} else {
			e.items = append(e.items[:i], e.items[i+1:]...)
		}
		e.persist(ctx)
		return
	}
}

// Remove deletes the matching line item regardless of its quantity.
func (e *Engine) Remove(ctx context.Context, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.items {
		if e.items[i].ID == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			e.persist(ctx)
			return
		}
	}
}

// Clear empties the cart. Used by checkout.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = nil
	e.persist(ctx)
}

// Items returns a copy of the current line items in insertion order.
func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	items := make([]LineItem, len(e.items))
	copy(items, e.items)
	return items
}

// Count returns the total quantity across all line items.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for _, item := range e.items {
		total += item.Quantity
	}
	return total
}

// Totals computes the cart totals. Each line is rounded to cents before
// summing; rounding once after summing can drift by a cent from what the
// per-line display shows.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return Totals{
			Subtotal: decimal.Zero,
			Shipping: decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, item := range e.items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subtotal = subtotal.Add(line)
	}

	return Totals{
		Subtotal: subtotal,
		Shipping: Shipping,
		Total:    subtotal.Add(Shipping),
	}
}

// persist writes the current items through to the store. Callers must hold
// e.mu. Failures are logged; the in-memory state remains authoritative for
// the rest of the session.
func (e *Engine) persist(ctx context.Context) {
	items := make([]LineItem, len(e.items))
	copy(items, e.items)

	if err := e.store.Save(ctx, items); err != nil {
		e.lg.Error("persist cart", zap.Error(err), zap.Int("items", len(items)))
	}
}
