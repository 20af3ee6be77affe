package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
)

// cartKey is the fixed key the single cart value lives under. The whole
// cart is one row, overwritten on every save.
const cartKey = "storefront"

var _ cart.Store = (*CartStore)(nil)

// CartStore implements cart.Store as a single JSONB row.
type CartStore struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

// NewCartStore returns a CartStore backed by the given pool.
func NewCartStore(pool *pgxpool.Pool, lg *zap.Logger) *CartStore {
	return &CartStore{pool: pool, lg: lg}
}

// Load returns the saved cart. A missing row or undecodable value counts as
// an empty cart; corrupt state is logged and discarded, never surfaced.
func (s *CartStore) Load(ctx context.Context) ([]cart.LineItem, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT items FROM cart_state WHERE key = $1`, cartKey,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load cart state")
	}

	var items []cart.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.lg.Warn("discarding unparseable cart state", zap.Error(err))
		return nil, nil
	}
	return items, nil
}

// Save overwrites the stored value with the full cart.
func (s *CartStore) Save(ctx context.Context, items []cart.LineItem) error {
	if items == nil {
		items = []cart.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO cart_state (key, items) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`,
		cartKey, data,
	)
	if err != nil {
		return errors.Wrap(err, "save cart state")
	}
	return nil
}
