package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func line(price, promo int64, qty int32) CartLine {
	l := CartLine{
		VariationID:    uuid.New(),
		UnitPriceCents: price,
		UnitPromoCents: promo,
		Quantity:       qty,
	}
	l.Recalculate()
	return l
}

func TestCartLine_Recalculate(t *testing.T) {
	l := line(1000, 800, 3)

	assert.Equal(t, int64(3000), l.LineTotalCents)
	assert.Equal(t, int64(2400), l.LinePromoCents)
}

func TestCartLine_EffectiveTotal_PrefersPromo(t *testing.T) {
	assert.Equal(t, int64(2400), line(1000, 800, 3).EffectiveTotalCents())
}

func TestCartLine_EffectiveTotal_ZeroPromoMeansNoPromo(t *testing.T) {
	assert.Equal(t, int64(3000), line(1000, 0, 3).EffectiveTotalCents())
}

func TestCart_SubtotalSumsEffectiveTotals(t *testing.T) {
	cart := NewCart()
	cart.SetLine(line(1000, 800, 3)) // 2400
	cart.SetLine(line(500, 0, 2))    // 1000

	assert.Equal(t, int64(3400), cart.SubtotalCents())
	assert.Equal(t, int32(5), cart.TotalQuantity())
}

func TestCart_EmptyCartTotals(t *testing.T) {
	cart := NewCart()

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, int64(0), cart.SubtotalCents())
	assert.Equal(t, int64(1990), cart.GrandTotalCents(1990))
}

func TestCart_GrandTotalAddsShipping(t *testing.T) {
	cart := NewCart()
	cart.SetLine(line(1000, 800, 3))

	assert.Equal(t, int64(4390), cart.GrandTotalCents(1990))
}

func TestCart_SetLine_PrunesZeroQuantity(t *testing.T) {
	cart := NewCart()
	l := line(1000, 0, 2)
	cart.SetLine(l)
	assert.Equal(t, 1, cart.Len())

	l.Quantity = 0
	cart.SetLine(l)
	assert.True(t, cart.IsEmpty())
}

func TestCart_RemoveAndClear(t *testing.T) {
	cart := NewCart()
	a := line(1000, 0, 1)
	b := line(2000, 0, 1)
	cart.SetLine(a)
	cart.SetLine(b)

	cart.RemoveLine(a.VariationID.String())
	assert.Equal(t, 1, cart.Len())

	_, ok := cart.Line(b.VariationID.String())
	assert.True(t, ok)

	cart.Clear()
	assert.True(t, cart.IsEmpty())
}

func TestCart_NilSafety(t *testing.T) {
	var cart *Cart

	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 0, cart.Len())
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 43,90", FormatBRL(4390))
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 0,05", FormatBRL(5))
	assert.Equal(t, "R$ 1000,00", FormatBRL(100000))
	assert.Equal(t, "-R$ 19,90", FormatBRL(-1990))
}
