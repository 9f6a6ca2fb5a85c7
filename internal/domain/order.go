package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order domain errors.
var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Pedido não encontrado"}
	ErrMissingReason = &Error{Code: EINVALID, Message: "Por favor, informe o motivo do cancelamento."}
	ErrStaleStatus   = &Error{Code: ECONFLICT, Message: "Pedido não está mais neste status"}
	ErrNotPayable    = &Error{Code: ECONFLICT, Message: "Pedido não está aguardando pagamento"}
)

// OrderStatus is the order's position in its lifecycle.
type OrderStatus string

const (
	// OrderCreated means the order was persisted and awaits payment.
	OrderCreated OrderStatus = "created"
	// OrderApproved means the payment provider confirmed payment.
	OrderApproved OrderStatus = "approved"
	// OrderRejected means payment was cancelled or failed at the provider.
	OrderRejected OrderStatus = "rejected"
	// OrderProcessing means the order is being fulfilled (set by back office).
	OrderProcessing OrderStatus = "processing"
	// OrderCancelled is terminal; set by the customer, with an optional reason.
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderCreated, OrderApproved, OrderRejected, OrderProcessing, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Created goes to approved or rejected on payment outcome; everything except
// a cancelled order can still be cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch next {
	case OrderApproved, OrderRejected:
		return s == OrderCreated
	case OrderCancelled:
		return s != OrderCancelled
	}
	return false
}

// RequiresCancelReason reports whether cancelling from s demands a reason.
// Once money changed hands (approved) or fulfillment started (processing),
// the customer must say why.
func (s OrderStatus) RequiresCancelReason() bool {
	return s == OrderApproved || s == OrderProcessing
}

// Order is the persisted aggregate produced by reconciling a cart. Totals are
// set once at creation from the reconciled cart and never recomputed.
type Order struct {
	ID            uuid.UUID
	Number        string
	UserID        uuid.UUID
	TotalCents    int64
	ShippingCents int64
	TotalQuantity int32
	Status        OrderStatus
	CancelReason  string
	CreatedAt     time.Time
}

// OrderItem is an immutable snapshot of one cart line, frozen at order
// creation. Product and variation fields are denormalized copies so the item
// survives catalog edits and deletions. Prices are unit prices in centavos;
// a promotional price of 0 means no promotion applied.
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	ProductName   string
	VariationID   uuid.UUID
	VariationName string
	ImagePath     string

	UnitPriceCents int64
	UnitPromoCents int64
	Quantity       int32
}

// EffectiveTotalCents is the amount the item contributed to the order total.
func (i OrderItem) EffectiveTotalCents() int64 {
	if i.UnitPromoCents > 0 {
		return i.UnitPromoCents * int64(i.Quantity)
	}
	return i.UnitPriceCents * int64(i.Quantity)
}

// OrderDetail aggregates an order with its line items.
type OrderDetail struct {
	Order Order
	Items []OrderItem
}

// OrderPage is one page of a user's order history, newest first.
type OrderPage struct {
	Orders     []Order
	Page       int
	PerPage    int
	TotalCount int64
}
