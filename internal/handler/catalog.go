package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/catalog"
)

// catalogPage is the template data for the home and shop pages. FetchFailed
// and an empty Products slice render distinct states: "unavailable" versus
// "no products found".
type catalogPage struct {
	CartCount   int
	Added       string
	Products    []catalog.Product
	FetchFailed bool
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.renderListing(w, r, "home", h.catalog.Featured)
}

func (h *Handler) shop(w http.ResponseWriter, r *http.Request) {
	h.renderListing(w, r, "shop", h.catalog.All)
}

// renderListing fetches one listing and renders it. A fetch failure degrades
// to an inline error message; it is never fatal to the page.
func (h *Handler) renderListing(
	w http.ResponseWriter,
	r *http.Request,
	page string,
	fetch func(ctx context.Context) ([]catalog.Product, error),
) {
	data := catalogPage{
		CartCount: h.cart.Count(),
		Added:     r.URL.Query().Get("added"),
	}

	products, err := fetch(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("fetch products",
			zap.String("page", page),
			zap.Error(err),
		)
		data.FetchFailed = true
	}
	data.Products = products

	h.render(w, r, page, data)
}
