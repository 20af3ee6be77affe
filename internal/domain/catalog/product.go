// Package catalog retrieves raw product records from the public food
// product API (or a locally ingested copy) and shapes them for display.
package catalog

import (
	"context"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing truncation limits.
const (
	// FeaturedLimit caps the featured listing on the home page.
	FeaturedLimit = 4
	// GeneralLimit caps the general shop listing.
	GeneralLimit = 20
)

// Record is a raw catalog entry as returned by the remote API. Every field
// is optional on the wire; filtering decides what is displayable.
type Record struct {
	Code     string
	Name     string
	Brand    string
	ImageURL string
}

// Product is a display-ready catalog entry admitted by a listing filter.
type Product struct {
	ID       string
	Name     string
	Brand    string
	ImageURL string
	Price    decimal.Decimal
}

// Source produces the two product listings shown by the storefront.
// A nil error with an empty slice means "nothing matched", which renders
// differently from a fetch failure.
type Source interface {
	Featured(ctx context.Context) ([]Product, error)
	All(ctx context.Context) ([]Product, error)
}

// FeaturedOK reports whether a record qualifies for the featured listing:
// name, image and brand must all be present.
func FeaturedOK(r Record) bool {
	return r.Name != "" && r.ImageURL != "" && r.Brand != ""
}

// GeneralOK reports whether a record qualifies for the general listing.
// Brand is not required here; the asymmetry with FeaturedOK matches the
// listing behavior and must not be unified.
func GeneralOK(r Record) bool {
	return r.Name != "" && r.ImageURL != ""
}

// PriceFor derives a stable display price for a product. The remote API
// carries no prices, so the price is a deterministic function of the id:
// FNV-1a hashed into cents between 2.50 and 9.99. The same product keeps
// the same price across fetches and sessions.
func PriceFor(id string) decimal.Decimal {
	h := fnv.New32a()
	h.Write([]byte(id))
	cents := 250 + int64(h.Sum32()%750)
	return decimal.New(cents, -2)
}

// Display converts an admitted record into a Product. Records without a
// code get a generated fallback id so cart operations stay addressable.
func Display(r Record) Product {
	id := r.Code
	if id == "" {
		id = uuid.New().String()
	}
	return Product{
		ID:       id,
		Name:     r.Name,
		Brand:    r.Brand,
		ImageURL: r.ImageURL,
		Price:    PriceFor(id),
	}
}

// Admit filters raw records with ok, truncates to limit, and shapes the
// survivors for display. Records failing the filter are dropped, never
// substituted.
func Admit(records []Record, ok func(Record) bool, limit int) []Product {
	products := make([]Product, 0, limit)
	for _, r := range records {
		if !ok(r) {
			continue
		}
		products = append(products, Display(r))
		if len(products) == limit {
			break
		}
	}
	return products
}
