package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pantry-storefront/internal/domain/catalog"
)

var _ catalog.Source = (*CatalogSource)(nil)

// CatalogSource serves product listings from the locally ingested catalog
// (see cmd/catalog-ingest) instead of the remote API. The listing filters
// mirror the remote ones: featured requires a brand, general does not.
type CatalogSource struct {
	pool *pgxpool.Pool
}

// NewCatalogSource returns a CatalogSource backed by the given pool.
func NewCatalogSource(pool *pgxpool.Pool) *CatalogSource {
	return &CatalogSource{pool: pool}
}

// Featured returns up to catalog.FeaturedLimit branded products.
func (s *CatalogSource) Featured(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, name, brand, image_url, price
		FROM products WHERE brand <> ''
		ORDER BY code LIMIT $1`,
		catalog.FeaturedLimit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query featured products")
	}
	return scanProducts(rows)
}

// All returns up to catalog.GeneralLimit products, branded or not.
func (s *CatalogSource) All(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code, name, brand, image_url, price
		FROM products
		ORDER BY code LIMIT $1`,
		catalog.GeneralLimit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]catalog.Product, error) {
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.ImageURL, &p.Price); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return products, nil
}
