package storefront

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/handler"
	"github.com/odmarques/lojinha/internal/service"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// CheckoutHandler drives the cart-to-order conversion. Routes require an
// authenticated session.
type CheckoutHandler struct {
	checkout service.CheckoutService
	carts    service.CartService
	sessions SessionStore
	metrics  *telemetry.BusinessMetrics
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout service.CheckoutService, carts service.CartService, sessions SessionStore, metrics *telemetry.BusinessMetrics) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
		sessions: sessions,
		metrics:  metrics,
	}
}

// Summary handles GET /checkout/summary
//
// A last look at the cart, shipping fee and grand total before the order is
// saved. Nothing is persisted here.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess := requestSession(r)
	cart := sess.Cart()
	if cart.IsEmpty() {
		flashAndRedirect(w, r, h.sessions, sess, "warning", domain.ErrorMessage(domain.ErrEmptyCart), "/products")
		return
	}

	if h.metrics != nil {
		h.metrics.CheckoutStarted.Inc()
	}

	summary := h.carts.Summary(cart, sess.ShippingCents())
	handler.WriteJSON(w, http.StatusOK, newCartView(summary, nil))
}

// Save handles POST /cart/save
//
// Reconciles the cart against live stock and freezes it into an order. When
// quantities had to be adjusted the rewritten cart is saved back into the
// session and the customer returns to the cart page; no order exists.
func (h *CheckoutHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess := requestSession(r)
	cart := sess.Cart()

	detail, err := h.checkout.Reconcile(r.Context(), service.ReconcileParams{
		UserID:        sess.UserID,
		SessionToken:  sess.Token,
		Cart:          cart,
		ShippingCents: sess.ShippingCents(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			flashAndRedirect(w, r, h.sessions, sess, "warning", domain.ErrorMessage(err), "/products")
		case errors.Is(err, domain.ErrInsufficientStock):
			// The reconciled quantities must stick even though no order
			// was created.
			flashAndRedirect(w, r, h.sessions, sess, "warning", domain.ErrorMessage(err), "/cart")
		default:
			handler.ErrorResponse(w, r, err)
		}
		return
	}

	// Reconcile cleared the cart; persist that before handing off to payment.
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/order/%s/pay", detail.Order.ID), http.StatusSeeOther)
}
