package storefront

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/handler"
	"github.com/odmarques/lojinha/internal/service"
	"github.com/odmarques/lojinha/internal/session"
)

// OrderHandler handles the order history, payment and cancellation routes.
// All of them require an authenticated session; orders are only ever read
// through their owner's id, so a foreign order is a plain 404.
type OrderHandler struct {
	orders   service.OrderService
	payments service.PaymentService
	sessions SessionStore
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, payments service.PaymentService, sessions SessionStore) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments, sessions: sessions}
}

type orderView struct {
	ID            string      `json:"id"`
	Number        string      `json:"number"`
	Status        string      `json:"status"`
	Total         float64     `json:"total"`
	TotalDisplay  string      `json:"total_display"`
	Shipping      float64     `json:"shipping"`
	TotalQuantity int32       `json:"total_quantity"`
	CancelReason  string      `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Messages      []flashView `json:"messages,omitempty"`
}

type orderItemView struct {
	ProductName   string  `json:"product_name"`
	VariationName string  `json:"variation_name"`
	ImagePath     string  `json:"image_path,omitempty"`
	UnitPrice     float64 `json:"unit_price"`
	UnitPromo     float64 `json:"unit_promo,omitempty"`
	Quantity      int32   `json:"quantity"`
	LineTotal     float64 `json:"line_total"`
}

type orderDetailView struct {
	orderView
	Items []orderItemView `json:"items"`
}

func newOrderView(o *domain.Order, flashes []session.Flash) orderView {
	return orderView{
		ID:            o.ID.String(),
		Number:        o.Number,
		Status:        string(o.Status),
		Total:         brl(o.TotalCents),
		TotalDisplay:  domain.FormatBRL(o.TotalCents),
		Shipping:      brl(o.ShippingCents),
		TotalQuantity: o.TotalQuantity,
		CancelReason:  o.CancelReason,
		CreatedAt:     o.CreatedAt,
		Messages:      flashViews(flashes),
	}
}

func newOrderDetailView(d *domain.OrderDetail, flashes []session.Flash) orderDetailView {
	items := make([]orderItemView, len(d.Items))
	for i, it := range d.Items {
		items[i] = orderItemView{
			ProductName:   it.ProductName,
			VariationName: it.VariationName,
			ImagePath:     it.ImagePath,
			UnitPrice:     brl(it.UnitPriceCents),
			UnitPromo:     brl(it.UnitPromoCents),
			Quantity:      it.Quantity,
			LineTotal:     brl(it.EffectiveTotalCents()),
		}
	}
	return orderDetailView{orderView: newOrderView(&d.Order, flashes), Items: items}
}

// List handles GET /orders?page=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	sess := requestSession(r)

	result, err := h.orders.List(r.Context(), sess.UserID, page)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	orders := make([]orderView, len(result.Orders))
	for i := range result.Orders {
		orders[i] = newOrderView(&result.Orders[i], nil)
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"orders":      orders,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_count": result.TotalCount,
		"messages":    flashViews(h.drainFlashes(r)),
	})
}

// Detail handles GET /order/{id}
func (h *OrderHandler) Detail(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	sess := requestSession(r)
	detail, err := h.orders.Get(r.Context(), orderID, sess.UserID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, newOrderDetailView(detail, h.drainFlashes(r)))
}

// PayView handles GET /order/{id}/pay
//
// Shows the order about to be paid. The actual handoff to the provider only
// happens on the POST.
func (h *OrderHandler) PayView(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	sess := requestSession(r)
	detail, err := h.orders.Get(r.Context(), orderID, sess.UserID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, newOrderDetailView(detail, h.drainFlashes(r)))
}

// PayStart handles POST /order/{id}/pay
//
// Creates the hosted checkout session and redirects the customer to the
// provider. On failure the order stays exactly as it was and the customer
// lands back on the pay page with a message.
func (h *OrderHandler) PayStart(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	sess := requestSession(r)
	checkoutURL, err := h.payments.StartCheckout(r.Context(), orderID, sess.UserID)
	if err != nil {
		if domain.IsCode(err, domain.EPAYMENT) {
			flashAndRedirect(w, r, h.sessions, sess, "error", domain.ErrorMessage(err),
				fmt.Sprintf("/order/%s/pay", orderID))
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

// PaymentSuccess handles GET /order/{id}/payment-success
//
// The provider redirects here after a confirmed payment. Replays no-op.
func (h *OrderHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, true)
}

// PaymentCancelled handles GET /order/{id}/payment-cancelled
//
// The provider redirects here when the customer abandons or the payment
// fails. Replays no-op.
func (h *OrderHandler) PaymentCancelled(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, false)
}

func (h *OrderHandler) settle(w http.ResponseWriter, r *http.Request, approved bool) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	sess := requestSession(r)

	var order *domain.Order
	if approved {
		order, err = h.orders.MarkApproved(r.Context(), orderID, sess.UserID)
	} else {
		order, err = h.orders.MarkRejected(r.Context(), orderID, sess.UserID)
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	message := "Pagamento aprovado! Obrigado pela compra."
	level := "success"
	if !approved {
		message = "Pagamento não concluído. Você pode tentar novamente."
		level = "warning"
	}
	flashAndRedirect(w, r, h.sessions, sess, level, message, fmt.Sprintf("/order/%s", order.ID))
}

// Cancel handles POST /order/{id}/cancel (form field motivo)
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("order.cancel", "Invalid form data"))
		return
	}
	reason := r.FormValue("motivo")

	sess := requestSession(r)
	order, err := h.orders.Cancel(r.Context(), orderID, sess.UserID, reason)
	if err != nil {
		if errors.Is(err, domain.ErrMissingReason) {
			flashAndRedirect(w, r, h.sessions, sess, "error", domain.ErrorMessage(err),
				fmt.Sprintf("/order/%s", orderID))
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	flashAndRedirect(w, r, h.sessions, sess, "success", "Pedido cancelado.",
		fmt.Sprintf("/order/%s", order.ID))
}

// drainFlashes pops the session's queued messages and persists the drain.
func (h *OrderHandler) drainFlashes(r *http.Request) []session.Flash {
	sess := requestSession(r)
	flashes := sess.PopFlashes()
	if len(flashes) > 0 {
		if err := h.sessions.Save(r.Context(), sess); err != nil {
			// The messages were already drained for this response; losing
			// the persisted drain only risks showing them twice.
			return flashes
		}
	}
	return flashes
}
