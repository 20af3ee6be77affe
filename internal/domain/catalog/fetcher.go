package catalog

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Page sizes requested from the remote search endpoint per listing. The
// featured page over-fetches slightly so four records survive filtering;
// the general page over-fetches heavily because brandless records pass.
const (
	featuredPageSize = 15
	generalPageSize  = 100
)

// Fetcher queries the remote food product search API. Each listing is one
// request: no pagination, no retry, and no client timeout. A navigated-away
// page simply abandons its response via context cancellation.
type Fetcher struct {
	client        *http.Client
	baseURL       string
	featuredQuery string
	generalQuery  string
}

var _ Source = (*Fetcher)(nil)

// FetcherConfig configures the remote catalog fetcher.
type FetcherConfig struct {
	// BaseURL is the search endpoint, e.g.
	// https://world.openfoodfacts.org/cgi/search.pl
	BaseURL string
	// FeaturedQuery is the fixed search term for the featured listing.
	FeaturedQuery string
	// GeneralQuery is the fixed search term for the general listing.
	GeneralQuery string
	// Client overrides the HTTP client; nil means a default client with no
	// timeout.
	Client *http.Client
}

// NewFetcher creates a Fetcher for the given endpoint and search terms.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:        client,
		baseURL:       cfg.BaseURL,
		featuredQuery: cfg.FeaturedQuery,
		generalQuery:  cfg.GeneralQuery,
	}
}

// Featured returns the first FeaturedLimit records that carry a name, an
// image and a brand.
func (f *Fetcher) Featured(ctx context.Context) ([]Product, error) {
	records, err := f.search(ctx, f.featuredQuery, featuredPageSize)
	if err != nil {
		return nil, err
	}
	return Admit(records, FeaturedOK, FeaturedLimit), nil
}

// All returns the first GeneralLimit records that carry a name and an image.
func (f *Fetcher) All(ctx context.Context) ([]Product, error) {
	records, err := f.search(ctx, f.generalQuery, generalPageSize)
	if err != nil {
		return nil, err
	}
	return Admit(records, GeneralOK, GeneralLimit), nil
}

// search issues a single GET against the search endpoint and decodes the
// products array from the response.
func (f *Fetcher) search(ctx context.Context, terms string, pageSize int) ([]Record, error) {
	q := url.Values{}
	q.Set("search_terms", terms)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	q.Set("page_size", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	records, err := DecodeSearch(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "decode search response")
	}
	return records, nil
}

// DecodeSearch pulls the products array out of a search payload, skipping
// every field the storefront does not display.
func DecodeSearch(r io.Reader) ([]Record, error) {
	d := jx.Decode(r, 4096)

	var records []Record
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "products" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			rec, err := DecodeRecord(d)
			if err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return records, nil
}

// DecodeRecord decodes a single raw product object. Only the four fields
// the storefront cares about are kept; everything else in the (very wide)
// upstream objects is skipped without allocation.
func DecodeRecord(d *jx.Decoder) (Record, error) {
	var rec Record
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			return decodeTrimmed(d, &rec.Code)
		case "product_name":
			return decodeTrimmed(d, &rec.Name)
		case "brands":
			return decodeTrimmed(d, &rec.Brand)
		case "image_url":
			return decodeTrimmed(d, &rec.ImageURL)
		default:
			return d.Skip()
		}
	})
	return rec, err
}

// decodeTrimmed reads a string value into dst, tolerating nulls and
// non-string noise present in the upstream data.
func decodeTrimmed(d *jx.Decoder, dst *string) error {
	if d.Next() != jx.String {
		return d.Skip()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = strings.TrimSpace(s)
	return nil
}
