package storefront

import (
	"net/http"

	"github.com/odmarques/lojinha/internal/handler"
	"github.com/odmarques/lojinha/internal/shipping"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// ShippingHandler answers shipping quote lookups.
type ShippingHandler struct {
	sessions SessionStore
	metrics  *telemetry.BusinessMetrics
}

// NewShippingHandler creates a new shipping handler.
func NewShippingHandler(sessions SessionStore, metrics *telemetry.BusinessMetrics) *ShippingHandler {
	return &ShippingHandler{sessions: sessions, metrics: metrics}
}

// Quote handles GET /shipping/quote?city=...
//
// The quote is both returned and persisted into the session, so a later
// checkout charges the fee the customer last saw.
func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	fee := shipping.Quote(city)

	if h.metrics != nil {
		known := "no"
		if shipping.Known(city) {
			known = "yes"
		}
		h.metrics.ShippingQuotes.WithLabelValues(known).Inc()
	}

	sess := requestSession(r)
	sess.SetShippingCents(fee)
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"shipping": brl(fee),
	})
}
