package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
	"github.com/xenking/pantry-storefront/internal/domain/catalog"
	"github.com/xenking/pantry-storefront/internal/domain/order"
	"github.com/xenking/pantry-storefront/internal/view"
)

// --- Mocks ---

type memStore struct {
	items []cart.LineItem
}

func (m *memStore) Load(_ context.Context) ([]cart.LineItem, error) { return m.items, nil }

func (m *memStore) Save(_ context.Context, items []cart.LineItem) error {
	m.items = items
	return nil
}

type mockSource struct {
	featured []catalog.Product
	all      []catalog.Product
	err      error
}

func (m *mockSource) Featured(_ context.Context) ([]catalog.Product, error) {
	return m.featured, m.err
}

func (m *mockSource) All(_ context.Context) ([]catalog.Product, error) {
	return m.all, m.err
}

type mockOrderRepo struct {
	created []*order.Order
	err     error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.created = append(m.created, o)
	return m.err
}

// --- Helpers ---

func newTestHandler(t *testing.T, source catalog.Source, orders order.Repository) *Handler {
	t.Helper()
	views, err := view.New()
	require.NoError(t, err)
	engine := cart.NewEngine(&memStore{}, zap.NewNop())
	return New(engine, source, orders, views)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func addForm(id, name, price string) url.Values {
	return url.Values{
		"id":    {id},
		"name":  {name},
		"price": {price},
		"image": {"https://img.example/" + id + ".jpg"},
	}
}

func testProduct(id, name, brand string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     name,
		Brand:    brand,
		ImageURL: "https://img.example/" + id + ".jpg",
		Price:    decimal.RequireFromString("3.50"),
	}
}

// --- Catalog pages ---

func TestHome_RendersFeatured(t *testing.T) {
	src := &mockSource{featured: []catalog.Product{
		testProduct("1", "Oat Bars", "Granary"),
		testProduct("2", "Rye Bread", "Millers"),
	}}
	mux := newTestHandler(t, src, nil).Routes()

	w := get(t, mux, "/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Oat Bars")
	assert.Contains(t, body, "Rye Bread")
	assert.Contains(t, body, "$3.50")
	assert.Contains(t, body, "Add to Cart")
}

func TestHome_FetchFailure(t *testing.T) {
	src := &mockSource{err: errors.New("upstream down")}
	mux := newTestHandler(t, src, nil).Routes()

	w := get(t, mux, "/")

	require.Equal(t, http.StatusOK, w.Code, "fetch failure is not fatal to the page")
	assert.Contains(t, w.Body.String(), "Products are unavailable right now")
}

func TestShop_EmptyAfterFilter(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	w := get(t, mux, "/shop")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "No products found")
	assert.NotContains(t, body, "unavailable", "empty result is distinct from failure")
}

// --- Cart flow ---

func TestAddItem_RedirectsWithConfirmation(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	w := postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "3.50"))

	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "Oat Bars", loc.Query().Get("added"))
}

func TestAddItem_BadPrice(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	w := postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "free"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartPage_Flow(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	// Empty cart state.
	w := get(t, mux, "/cart")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your cart is empty")
	assert.NotContains(t, w.Body.String(), "Checkout")

	// Add twice: one line, quantity 2.
	postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "10.00"))
	postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "10.00"))
	postForm(t, mux, "/cart/items", addForm("2", "Jam", "3.33"))
	postForm(t, mux, "/cart/items/2/increment", nil)
	postForm(t, mux, "/cart/items/2/increment", nil)

	w = get(t, mux, "/cart")
	body := w.Body.String()
	assert.Contains(t, body, "Oat Bars")
	assert.Contains(t, body, "$20.00") // 10.00 x 2 line total
	assert.Contains(t, body, "$9.99")  // 3.33 x 3 line total
	assert.Contains(t, body, "$29.99") // subtotal
	assert.Contains(t, body, "$5.00")  // shipping
	assert.Contains(t, body, "$34.99") // total
	assert.Contains(t, body, "Checkout")
}

func TestDecrementToRemoval(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()
	postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "3.50"))

	w := postForm(t, mux, "/cart/items/1/decrement", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = get(t, mux, "/cart")
	assert.Contains(t, w.Body.String(), "Your cart is empty")
}

func TestRemoveItem(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()
	postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "3.50"))
	postForm(t, mux, "/cart/items", addForm("2", "Jam", "2.00"))

	postForm(t, mux, "/cart/items/1/remove", nil)

	body := get(t, mux, "/cart").Body.String()
	assert.NotContains(t, body, "Oat Bars")
	assert.Contains(t, body, "Jam")
}

func TestCheckout_RecordsOrderAndClearsCart(t *testing.T) {
	orders := &mockOrderRepo{}
	mux := newTestHandler(t, &mockSource{}, orders).Routes()
	postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "10.00"))

	w := postForm(t, mux, "/cart/checkout", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thank you for your order")
	assert.Contains(t, w.Body.String(), "$15.00") // 10.00 + 5.00 shipping

	require.Len(t, orders.created, 1)
	o := orders.created[0]
	assert.NotEmpty(t, o.ID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "1", o.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("15.00").Equal(o.Total))

	body := get(t, mux, "/cart").Body.String()
	assert.Contains(t, body, "Your cart is empty")
}

func TestCheckout_EmptyCartBouncesBack(t *testing.T) {
	orders := &mockOrderRepo{}
	mux := newTestHandler(t, &mockSource{}, orders).Routes()

	w := postForm(t, mux, "/cart/checkout", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))
	assert.Empty(t, orders.created)
}

func TestCheckout_RecordFailureStillSucceeds(t *testing.T) {
	orders := &mockOrderRepo{err: errors.New("db away")}
	mux := newTestHandler(t, &mockSource{}, orders).Routes()
	postForm(t, mux, "/cart/items", addForm("1", "Oat Bars", "10.00"))

	w := postForm(t, mux, "/cart/checkout", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thank you for your order")
}

// --- Contact form ---

func TestContact_RendersForm(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	w := get(t, mux, "/contact")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<form")
}

func TestContact_InvalidSubmission(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	w := postForm(t, mux, "/contact", url.Values{
		"name":    {""},
		"email":   {"a@b"},
		"message": {"hello"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Please enter your name")
	assert.Contains(t, body, "Please enter a valid email address")
	assert.NotContains(t, body, "Thanks for your message")
}

func TestContact_ValidSubmission(t *testing.T) {
	mux := newTestHandler(t, &mockSource{}, nil).Routes()

	w := postForm(t, mux, "/contact", url.Values{
		"name":    {"Sam"},
		"email":   {"a@b.com"},
		"message": {"hello"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thanks for your message")
}
