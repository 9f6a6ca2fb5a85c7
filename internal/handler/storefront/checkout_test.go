package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/session"
)

func sessionWithCart(userID uuid.UUID) *session.Session {
	sess := authedSession(userID)
	line := domain.CartLine{
		VariationID:    uuid.New(),
		VariationName:  "500g",
		ProductName:    "Café Especial",
		UnitPriceCents: 1000,
		UnitPromoCents: 800,
		Quantity:       3,
	}
	line.Recalculate()
	sess.Cart().SetLine(line)
	sess.SetShippingCents(1990)
	return sess
}

func TestCheckoutHandler_Summary(t *testing.T) {
	h := NewCheckoutHandler(&fakeCheckoutService{}, &fakeCartService{}, &fakeSessionStore{}, nil)

	sess := sessionWithCart(uuid.New())
	req := httptest.NewRequest(http.MethodGet, "/checkout/summary", nil)
	rec := httptest.NewRecorder()

	h.Summary(rec, withSession(req, sess))

	require.Equal(t, http.StatusOK, rec.Code)

	var view cartView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, 24.00, view.Subtotal)
	assert.Equal(t, 19.90, view.Shipping)
	assert.Equal(t, 43.90, view.Total)
	assert.Equal(t, "R$ 43,90", view.TotalDisplay)
}

func TestCheckoutHandler_Summary_EmptyCart(t *testing.T) {
	store := &fakeSessionStore{}
	h := NewCheckoutHandler(&fakeCheckoutService{}, &fakeCartService{}, store, nil)

	sess := authedSession(uuid.New())
	req := httptest.NewRequest(http.MethodGet, "/checkout/summary", nil)
	rec := httptest.NewRecorder()

	h.Summary(rec, withSession(req, sess))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))

	flashes := sess.PopFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "warning", flashes[0].Level)
	assert.Equal(t, "Seu carrinho está vazio", flashes[0].Message)
}

func TestCheckoutHandler_Save(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	checkout := &fakeCheckoutService{detail: &domain.OrderDetail{Order: domain.Order{
		ID:         orderID,
		Number:     "PED-20260828-TEST",
		UserID:     userID,
		TotalCents: 4390,
		Status:     domain.OrderCreated,
		CreatedAt:  time.Now(),
	}}}
	store := &fakeSessionStore{}
	h := NewCheckoutHandler(checkout, &fakeCartService{}, store, nil)

	sess := sessionWithCart(userID)
	req := httptest.NewRequest(http.MethodPost, "/cart/save", nil)
	rec := httptest.NewRecorder()

	h.Save(rec, withSession(req, sess))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/order/"+orderID.String()+"/pay", rec.Header().Get("Location"))
	assert.Equal(t, 1, store.saves, "cleared cart is persisted")

	require.NotNil(t, checkout.lastParams)
	assert.Equal(t, userID, checkout.lastParams.UserID)
	assert.Equal(t, "test-token", checkout.lastParams.SessionToken)
	assert.Equal(t, int64(1990), checkout.lastParams.ShippingCents)
}

func TestCheckoutHandler_Save_InsufficientStock(t *testing.T) {
	store := &fakeSessionStore{}
	h := NewCheckoutHandler(&fakeCheckoutService{err: domain.ErrInsufficientStock}, &fakeCartService{}, store, nil)

	sess := sessionWithCart(uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/cart/save", nil)
	rec := httptest.NewRecorder()

	h.Save(rec, withSession(req, sess))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	assert.Equal(t, 1, store.saves, "the adjusted cart is persisted")

	flashes := sess.PopFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "warning", flashes[0].Level)
}

func TestCheckoutHandler_Save_EmptyCart(t *testing.T) {
	h := NewCheckoutHandler(&fakeCheckoutService{err: domain.ErrEmptyCart}, &fakeCartService{}, &fakeSessionStore{}, nil)

	sess := authedSession(uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/cart/save", nil)
	rec := httptest.NewRecorder()

	h.Save(rec, withSession(req, sess))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))
}

func TestCheckoutHandler_Save_UnexpectedErrorIsNotSwallowed(t *testing.T) {
	h := NewCheckoutHandler(&fakeCheckoutService{err: domain.Internal(nil, "checkout", "boom")}, &fakeCartService{}, &fakeSessionStore{}, nil)

	sess := sessionWithCart(uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/cart/save", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	h.Save(rec, withSession(req, sess))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
