package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Cart domain errors.
var (
	ErrEmptyCart         = &Error{Code: EINVALID, Message: "Seu carrinho está vazio"}
	ErrCartItemNotFound  = &Error{Code: ENOTFOUND, Message: "Item não está no carrinho"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Estoque insuficiente para alguns produtos. Quantidades ajustadas."}
	ErrOutOfStock        = &Error{Code: ECONFLICT, Message: "Estoque insuficiente"}
)

// CartLine is one product variation pending purchase. Prices are unit prices
// in centavos; a promotional price of 0 means the variation has no promotion.
// Line totals are kept denormalized for display and recomputed whenever the
// quantity changes.
type CartLine struct {
	VariationID   uuid.UUID `json:"variation_id"`
	VariationName string    `json:"variation_name"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Slug          string    `json:"slug"`
	ImagePath     string    `json:"image_path"`

	UnitPriceCents int64 `json:"unit_price_cents"`
	UnitPromoCents int64 `json:"unit_promo_cents"`
	Quantity       int32 `json:"quantity"`

	LineTotalCents int64 `json:"line_total_cents"`
	LinePromoCents int64 `json:"line_promo_cents"`
}

// Recalculate rederives the denormalized line totals from the unit prices and
// the current quantity. Must be called after every quantity change.
func (l *CartLine) Recalculate() {
	l.LineTotalCents = l.UnitPriceCents * int64(l.Quantity)
	l.LinePromoCents = l.UnitPromoCents * int64(l.Quantity)
}

// EffectiveTotalCents is the amount the line actually costs: the promotional
// line total when the variation has a promotion, the regular total otherwise.
func (l CartLine) EffectiveTotalCents() int64 {
	if l.LinePromoCents > 0 {
		return l.LinePromoCents
	}
	return l.LineTotalCents
}

// Cart is the session-held set of pending line items, keyed by variation ID.
// It is a plain value object: mutations never touch the catalog or any store,
// persistence is the session's concern.
type Cart struct {
	Lines map[string]CartLine `json:"lines"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Lines: make(map[string]CartLine)}
}

// Line returns the line for a variation ID, if present.
func (c *Cart) Line(variationID string) (CartLine, bool) {
	line, ok := c.Lines[variationID]
	return line, ok
}

// SetLine writes a line, keyed by its variation ID. A line whose quantity
// dropped to zero or below is removed instead: empty lines are not a valid
// cart state.
func (c *Cart) SetLine(line CartLine) {
	if c.Lines == nil {
		c.Lines = make(map[string]CartLine)
	}
	if line.Quantity <= 0 {
		delete(c.Lines, line.VariationID.String())
		return
	}
	c.Lines[line.VariationID.String()] = line
}

// RemoveLine deletes the line for a variation ID.
func (c *Cart) RemoveLine(variationID string) {
	delete(c.Lines, variationID)
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Lines = make(map[string]CartLine)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lines)
}

// VariationIDs returns the variation IDs of every line, for batch catalog lookups.
func (c *Cart) VariationIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.VariationID)
	}
	return ids
}

// SubtotalCents sums the effective total of every line. The same formula
// serves the cart page, the purchase summary and reconciliation.
func (c *Cart) SubtotalCents() int64 {
	var subtotal int64
	for _, line := range c.Lines {
		subtotal += line.EffectiveTotalCents()
	}
	return subtotal
}

// TotalQuantity sums the quantity of every line.
func (c *Cart) TotalQuantity() int32 {
	var qty int32
	for _, line := range c.Lines {
		qty += line.Quantity
	}
	return qty
}

// GrandTotalCents is the subtotal plus the shipping fee.
func (c *Cart) GrandTotalCents(shippingCents int64) int64 {
	return c.SubtotalCents() + shippingCents
}

// FormatBRL renders centavos as a Brazilian Real display string: "R$ 43,90".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, cents/100, cents%100)
}
