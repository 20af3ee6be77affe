// Package handler wires the HTTP routes to the cart engine, catalog source,
// and contact validator. Handlers stay thin: they parse the request, call
// into the domain, and render a full page or redirect.
package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
	"github.com/xenking/pantry-storefront/internal/domain/catalog"
	"github.com/xenking/pantry-storefront/internal/domain/order"
	"github.com/xenking/pantry-storefront/internal/view"
)

// Handler serves the storefront pages.
type Handler struct {
	cart    *cart.Engine
	catalog catalog.Source
	orders  order.Repository // nil when no database is configured
	views   *view.Views
}

// New constructs a Handler. orders may be nil; checkout then only logs the
// order instead of recording it.
func New(engine *cart.Engine, source catalog.Source, orders order.Repository, views *view.Views) *Handler {
	return &Handler{
		cart:    engine,
		catalog: source,
		orders:  orders,
		views:   views,
	}
}

// Routes returns the storefront route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /shop", h.shop)
	mux.HandleFunc("GET /cart", h.cartPage)
	mux.HandleFunc("POST /cart/items", h.addItem)
	mux.HandleFunc("POST /cart/items/{id}/increment", h.incrementItem)
	mux.HandleFunc("POST /cart/items/{id}/decrement", h.decrementItem)
	mux.HandleFunc("POST /cart/items/{id}/remove", h.removeItem)
	mux.HandleFunc("POST /cart/checkout", h.checkout)
	mux.HandleFunc("GET /contact", h.contactPage)
	mux.HandleFunc("POST /contact", h.submitContact)
	return mux
}

// render writes a full page. Render errors are logged only: part of the
// response may already be on the wire.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.Render(w, page, data); err != nil {
		zctx.From(r.Context()).Error("render page",
			zap.String("page", page),
			zap.Error(err),
		)
	}
}
