package storefront

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/middleware"
	"github.com/odmarques/lojinha/internal/service"
	"github.com/odmarques/lojinha/internal/session"
)

// fakeSessionStore is an in-memory SessionStore. Sessions are mutated in
// place by the handlers; the fake only counts persists.
type fakeSessionStore struct {
	saves   int
	saveErr error
}

func (f *fakeSessionStore) Save(_ context.Context, _ *session.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	return nil
}

// withSession attaches a session to the request the way the middleware does.
func withSession(r *http.Request, sess *session.Session) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.SessionContextKey, sess)
	return r.WithContext(ctx)
}

func authedSession(userID uuid.UUID) *session.Session {
	return &session.Session{Token: "test-token", UserID: userID}
}

type fakeCartService struct {
	clamped   bool
	addErr    error
	removeErr error
	summary   *service.CartSummary

	added   []uuid.UUID
	removed []string
}

func (f *fakeCartService) AddItem(_ context.Context, _ *domain.Cart, variationID uuid.UUID) (bool, error) {
	if f.addErr != nil {
		return false, f.addErr
	}
	f.added = append(f.added, variationID)
	return f.clamped, nil
}

func (f *fakeCartService) RemoveItem(_ context.Context, _ *domain.Cart, variationID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, variationID)
	return nil
}

func (f *fakeCartService) Summary(cart *domain.Cart, shippingCents int64) *service.CartSummary {
	if f.summary != nil {
		return f.summary
	}
	subtotal := cart.SubtotalCents()
	return &service.CartSummary{
		SubtotalCents: subtotal,
		ShippingCents: shippingCents,
		TotalCents:    subtotal + shippingCents,
		TotalQuantity: cart.TotalQuantity(),
	}
}

type fakeCheckoutService struct {
	detail *domain.OrderDetail
	err    error

	lastParams *service.ReconcileParams
}

func (f *fakeCheckoutService) Reconcile(_ context.Context, params service.ReconcileParams) (*domain.OrderDetail, error) {
	f.lastParams = &params
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

type fakeOrderService struct {
	detail *domain.OrderDetail
	page   *domain.OrderPage
	order  *domain.Order
	err    error

	approved   []uuid.UUID
	rejected   []uuid.UUID
	cancelled  []uuid.UUID
	lastReason string
}

func (f *fakeOrderService) Get(_ context.Context, _, _ uuid.UUID) (*domain.OrderDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeOrderService) List(_ context.Context, _ uuid.UUID, _ int) (*domain.OrderPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeOrderService) MarkApproved(_ context.Context, orderID, _ uuid.UUID) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.approved = append(f.approved, orderID)
	return f.order, nil
}

func (f *fakeOrderService) MarkRejected(_ context.Context, orderID, _ uuid.UUID) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rejected = append(f.rejected, orderID)
	return f.order, nil
}

func (f *fakeOrderService) Cancel(_ context.Context, orderID, _ uuid.UUID, reason string) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cancelled = append(f.cancelled, orderID)
	f.lastReason = reason
	return f.order, nil
}

type fakePaymentService struct {
	url string
	err error

	started []uuid.UUID
}

func (f *fakePaymentService) StartCheckout(_ context.Context, orderID, _ uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.started = append(f.started, orderID)
	return f.url, nil
}
