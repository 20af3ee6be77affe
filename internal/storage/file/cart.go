// Package file persists the cart as a single JSON file, overwritten in
// full on every save. It is the zero-dependency alternative to the
// Postgres-backed store.
package file

import (
	"context"
	"encoding/json"
	"os"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore reads and writes the serialized line-item array at a fixed path.
// No versioning, no migration: the whole value is overwritten on every save.
type CartStore struct {
	path string
	lg   *zap.Logger
}

// NewCartStore returns a CartStore persisting to path.
func NewCartStore(path string, lg *zap.Logger) *CartStore {
	return &CartStore{path: path, lg: lg}
}

// Load returns the saved cart. A missing file or undecodable contents count
// as an empty cart; corrupt state is logged and discarded, never surfaced.
func (s *CartStore) Load(_ context.Context) ([]cart.LineItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read cart file")
	}

	var items []cart.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.lg.Warn("discarding unparseable cart state",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}
	return items, nil
}

// Save overwrites the stored value with the full cart. The write goes
// through a temp file and rename so a crash cannot leave a partial value.
func (s *CartStore) Save(_ context.Context, items []cart.LineItem) error {
	if items == nil {
		items = []cart.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write cart file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace cart file")
	}
	return nil
}
