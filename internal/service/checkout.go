package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/postgres"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// OrderCreator is the slice of the order store the checkout service needs.
type OrderCreator interface {
	CreateFromCart(ctx context.Context, params postgres.CreateOrderParams) (*domain.OrderDetail, error)
}

// CheckoutService reconciles a session cart into a persisted order.
type CheckoutService interface {
	// Reconcile re-checks the cart against live stock and, when everything
	// is still available, freezes it into an order and clears the cart.
	//
	// When any quantity had to be clamped the cart is adjusted in place, no
	// order is created, and the error is domain.ErrInsufficientStock so the
	// caller can send the customer back to the cart page.
	Reconcile(ctx context.Context, params ReconcileParams) (*domain.OrderDetail, error)
}

// ReconcileParams identifies the cart being converted and the quote that was
// shown to the customer.
type ReconcileParams struct {
	UserID        uuid.UUID
	SessionToken  string
	Cart          *domain.Cart
	ShippingCents int64
}

type checkoutService struct {
	catalog CatalogReader
	orders  OrderCreator
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(catalog CatalogReader, orders OrderCreator, metrics *telemetry.BusinessMetrics, logger *slog.Logger) CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &checkoutService{
		catalog: catalog,
		orders:  orders,
		metrics: metrics,
		logger:  logger.With("service", "checkout"),
	}
}

func (s *checkoutService) Reconcile(ctx context.Context, params ReconcileParams) (*domain.OrderDetail, error) {
	// The route is auth-guarded, but an order must never be persisted
	// without an owner.
	if params.UserID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	cart := params.Cart
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	// First pass against a plain read. Catches most drift without taking
	// row locks; the store re-checks under FOR UPDATE anyway.
	variations, err := s.catalog.VariationsByIDs(ctx, cart.VariationIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart variations: %w", err)
	}
	if reconcileLines(cart, variations) {
		if s.metrics != nil {
			s.metrics.StockAdjustments.Inc()
		}
		return nil, domain.ErrInsufficientStock
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, cart.Len())
	for _, line := range cart.Lines {
		items = append(items, domain.OrderItem{
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			VariationID:    line.VariationID,
			VariationName:  line.VariationName,
			ImagePath:      line.ImagePath,
			UnitPriceCents: line.UnitPriceCents,
			UnitPromoCents: line.UnitPromoCents,
			Quantity:       line.Quantity,
		})
	}

	detail, err := s.orders.CreateFromCart(ctx, postgres.CreateOrderParams{
		UserID:        params.UserID,
		SessionKey:    params.SessionToken,
		TotalCents:    cart.GrandTotalCents(params.ShippingCents),
		ShippingCents: params.ShippingCents,
		TotalQuantity: cart.TotalQuantity(),
		Items:         items,
	})
	if err != nil {
		// A concurrent sale won the race between our read and the store's
		// locked re-check. Clamp to what it reported and send the customer
		// back to the cart, same as a first-pass adjustment.
		var shortage *postgres.StockShortageError
		if errors.As(err, &shortage) {
			s.applyShortage(cart, shortage)
			if s.metrics != nil {
				s.metrics.StockAdjustments.Inc()
			}
			return nil, domain.ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	cart.Clear()

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
		s.metrics.OrderValue.Observe(float64(detail.Order.TotalCents))
		s.metrics.OrderItemCount.Observe(float64(detail.Order.TotalQuantity))
		s.metrics.CartCleared.WithLabelValues("purchase").Inc()
	}
	s.logger.Info("order created",
		"order_id", detail.Order.ID,
		"order_number", detail.Order.Number,
		"user_id", detail.Order.UserID,
		"total_cents", detail.Order.TotalCents)

	return detail, nil
}

func (s *checkoutService) applyShortage(cart *domain.Cart, shortage *postgres.StockShortageError) {
	for key, line := range cart.Lines {
		available, ok := shortage.Available[line.VariationID]
		if !ok {
			continue
		}
		if available < 1 {
			cart.RemoveLine(key)
			continue
		}
		line.Quantity = available
		line.Recalculate()
		cart.SetLine(line)
	}
}
