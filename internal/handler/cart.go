package handler

import (
	"net/http"
	"net/url"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
	"github.com/xenking/pantry-storefront/internal/domain/order"
)

// cartRow is one cart line prepared for display.
type cartRow struct {
	cart.LineItem
	LineTotal decimal.Decimal
}

// cartPageData is the template data for the cart page.
type cartPageData struct {
	CartCount int
	Rows      []cartRow
	Totals    cart.Totals
}

// confirmationPage is the template data for the post-checkout page.
type confirmationPage struct {
	CartCount int
	OrderID   string
	Total     decimal.Decimal
}

func (h *Handler) cartPage(w http.ResponseWriter, r *http.Request) {
	items := h.cart.Items()
	rows := make([]cartRow, len(items))
	for i, item := range items {
		rows[i] = cartRow{
			LineItem:  item,
			LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
		}
	}

	h.render(w, r, "cart", cartPageData{
		CartCount: h.cart.Count(),
		Rows:      rows,
		Totals:    h.cart.Totals(),
	})
}

// addItem handles the add-to-cart form. The form carries the product data
// because catalog records are ephemeral: they are fetched per page view and
// never persisted server-side.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	price, err := decimal.NewFromString(r.PostFormValue("price"))
	if err != nil || price.IsNegative() {
		http.Error(w, "bad price", http.StatusBadRequest)
		return
	}

	item := h.cart.Add(r.Context(), cart.AddParams{
		ID:        r.PostFormValue("id"),
		Name:      r.PostFormValue("name"),
		UnitPrice: price,
		ImageURL:  r.PostFormValue("image"),
	})

	redirectBack(w, r, item.Name)
}

func (h *Handler) incrementItem(w http.ResponseWriter, r *http.Request) {
	h.cart.Increment(r.Context(), r.PathValue("id"))
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (h *Handler) decrementItem(w http.ResponseWriter, r *http.Request) {
	h.cart.Decrement(r.Context(), r.PathValue("id"))
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.cart.Remove(r.Context(), r.PathValue("id"))
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// checkout records an order snapshot and empties the cart. An empty cart
// has no checkout: the button is not rendered, and a direct post bounces
// back to the cart page.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	items := h.cart.Items()
	if len(items) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	totals := h.cart.Totals()
	o := order.FromCart(items, totals)

	lg := zctx.From(r.Context())
	if h.orders != nil {
		// Recording is best-effort: the demo checkout still succeeds when
		// the order table is unreachable.
		if err := h.orders.Create(r.Context(), o); err != nil {
			lg.Error("record order", zap.String("order_id", o.ID), zap.Error(err))
		}
	} else {
		lg.Info("order placed",
			zap.String("order_id", o.ID),
			zap.String("total", totals.Total.String()),
		)
	}

	h.cart.Clear(r.Context())

	h.render(w, r, "confirmation", confirmationPage{
		OrderID: o.ID,
		Total:   totals.Total,
	})
}

// redirectBack sends the client back to the page it came from with an
// "added" confirmation banner. Only the referring path is reused, never the
// full URL, so the redirect cannot leave the site.
func redirectBack(w http.ResponseWriter, r *http.Request, added string) {
	target := "/shop"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		target = ref.Path
	}

	q := url.Values{}
	q.Set("added", added)
	http.Redirect(w, r, target+"?"+q.Encode(), http.StatusSeeOther)
}
