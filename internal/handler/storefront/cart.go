package storefront

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/handler"
	"github.com/odmarques/lojinha/internal/service"
	"github.com/odmarques/lojinha/internal/session"
)

// CartHandler handles the session cart routes.
type CartHandler struct {
	carts    service.CartService
	sessions SessionStore
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts service.CartService, sessions SessionStore) *CartHandler {
	return &CartHandler{carts: carts, sessions: sessions}
}

type cartLineView struct {
	VariationID   string  `json:"variation_id"`
	VariationName string  `json:"variation_name"`
	ProductName   string  `json:"product_name"`
	Slug          string  `json:"slug"`
	ImagePath     string  `json:"image_path,omitempty"`
	UnitPrice     float64 `json:"unit_price"`
	UnitPromo     float64 `json:"unit_promo,omitempty"`
	Quantity      int32   `json:"quantity"`
	LineTotal     float64 `json:"line_total"`
}

type cartView struct {
	Items           []cartLineView `json:"items"`
	Subtotal        float64        `json:"subtotal"`
	Shipping        float64        `json:"shipping"`
	Total           float64        `json:"total"`
	TotalQuantity   int32          `json:"total_quantity"`
	SubtotalDisplay string         `json:"subtotal_display"`
	TotalDisplay    string         `json:"total_display"`
	Messages        []flashView    `json:"messages,omitempty"`
}

func newCartView(summary *service.CartSummary, flashes []session.Flash) cartView {
	items := make([]cartLineView, len(summary.Lines))
	for i, line := range summary.Lines {
		items[i] = cartLineView{
			VariationID:   line.VariationID.String(),
			VariationName: line.VariationName,
			ProductName:   line.ProductName,
			Slug:          line.Slug,
			ImagePath:     line.ImagePath,
			UnitPrice:     brl(line.UnitPriceCents),
			UnitPromo:     brl(line.UnitPromoCents),
			Quantity:      line.Quantity,
			LineTotal:     brl(line.EffectiveTotalCents()),
		}
	}
	return cartView{
		Items:           items,
		Subtotal:        brl(summary.SubtotalCents),
		Shipping:        brl(summary.ShippingCents),
		Total:           brl(summary.TotalCents),
		TotalQuantity:   summary.TotalQuantity,
		SubtotalDisplay: domain.FormatBRL(summary.SubtotalCents),
		TotalDisplay:    domain.FormatBRL(summary.TotalCents),
		Messages:        flashViews(flashes),
	}
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	sess := requestSession(r)
	summary := h.carts.Summary(sess.Cart(), sess.ShippingCents())

	flashes := sess.PopFlashes()
	if len(flashes) > 0 {
		if err := h.sessions.Save(r.Context(), sess); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	}

	handler.WriteJSON(w, http.StatusOK, newCartView(summary, flashes))
}

// Add handles POST /cart/add (form field vid)
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("cart.add", "Invalid form data"))
		return
	}

	variationID, err := uuid.Parse(r.FormValue("vid"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.ErrVariationNotFound)
		return
	}

	sess := requestSession(r)
	clamped, err := h.carts.AddItem(r.Context(), sess.Cart(), variationID)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) || errors.Is(err, domain.ErrVariationNotFound) {
			flashAndRedirect(w, r, h.sessions, sess, "error", domain.ErrorMessage(err), "/cart")
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	if clamped {
		sess.AddFlash("warning", "Estoque insuficiente. Quantidade ajustada ao disponível.")
	} else {
		sess.AddFlash("success", "Produto adicionado ao carrinho")
	}
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Remove handles POST /cart/remove (form field vid)
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("cart.remove", "Invalid form data"))
		return
	}

	sess := requestSession(r)
	if err := h.carts.RemoveItem(r.Context(), sess.Cart(), r.FormValue("vid")); err != nil {
		flashAndRedirect(w, r, h.sessions, sess, "error", domain.ErrorMessage(err), "/cart")
		return
	}

	flashAndRedirect(w, r, h.sessions, sess, "success", "Item removido do carrinho", "/cart")
}
