package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []OrderStatus{OrderCreated, OrderApproved, OrderRejected, OrderProcessing, OrderCancelled} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderCreated, OrderApproved, true},
		{OrderCreated, OrderRejected, true},
		{OrderCreated, OrderCancelled, true},

		// payment outcomes only apply to orders still awaiting payment
		{OrderApproved, OrderRejected, false},
		{OrderRejected, OrderApproved, false},
		{OrderProcessing, OrderApproved, false},
		{OrderCancelled, OrderApproved, false},

		// anything not yet cancelled can be cancelled
		{OrderApproved, OrderCancelled, true},
		{OrderRejected, OrderCancelled, true},
		{OrderProcessing, OrderCancelled, true},
		{OrderCancelled, OrderCancelled, false},

		// created is never a destination
		{OrderApproved, OrderCreated, false},
		{OrderCancelled, OrderCreated, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatus_RequiresCancelReason(t *testing.T) {
	assert.False(t, OrderCreated.RequiresCancelReason())
	assert.False(t, OrderRejected.RequiresCancelReason())
	assert.True(t, OrderApproved.RequiresCancelReason())
	assert.True(t, OrderProcessing.RequiresCancelReason())
	assert.False(t, OrderCancelled.RequiresCancelReason())
}

func TestOrderItem_EffectiveTotal(t *testing.T) {
	withPromo := OrderItem{UnitPriceCents: 1000, UnitPromoCents: 800, Quantity: 3}
	assert.Equal(t, int64(2400), withPromo.EffectiveTotalCents())

	noPromo := OrderItem{UnitPriceCents: 1000, Quantity: 3}
	assert.Equal(t, int64(3000), noPromo.EffectiveTotalCents())
}
