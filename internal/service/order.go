package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/postgres"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// OrderReader reads persisted orders, always scoped to their owner.
type OrderReader interface {
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
	GetDetailForUser(ctx context.Context, orderID, userID uuid.UUID) (*domain.OrderDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) (*domain.OrderPage, error)
}

// OrderTransitioner performs the optimistic status update.
type OrderTransitioner interface {
	OrderReader
	Transition(ctx context.Context, orderID, userID uuid.UUID, from []domain.OrderStatus, to domain.OrderStatus, reason string) (*domain.Order, error)
}

// OrderService drives the order lifecycle after reconciliation. Payment
// outcome transitions are idempotent: replaying a provider redirect that
// already landed is a no-op, not an error.
type OrderService interface {
	Get(ctx context.Context, orderID, userID uuid.UUID) (*domain.OrderDetail, error)
	List(ctx context.Context, userID uuid.UUID, page int) (*domain.OrderPage, error)

	// MarkApproved records a confirmed payment. Only a created order can be
	// approved; an already-approved order is left untouched.
	MarkApproved(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)

	// MarkRejected records a failed or abandoned payment. Only a created
	// order can be rejected; an already-rejected order is left untouched.
	MarkRejected(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)

	// Cancel cancels the order on the customer's behalf. Once payment was
	// taken or fulfillment started, a reason is mandatory.
	Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) (*domain.Order, error)
}

// ordersPerPage is the page size of the order history listing.
const ordersPerPage = 10

type orderService struct {
	store   OrderTransitioner
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(store OrderTransitioner, metrics *telemetry.BusinessMetrics, logger *slog.Logger) OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{
		store:   store,
		metrics: metrics,
		logger:  logger.With("service", "order"),
	}
}

func (s *orderService) Get(ctx context.Context, orderID, userID uuid.UUID) (*domain.OrderDetail, error) {
	return s.store.GetDetailForUser(ctx, orderID, userID)
}

func (s *orderService) List(ctx context.Context, userID uuid.UUID, page int) (*domain.OrderPage, error) {
	return s.store.ListForUser(ctx, userID, page, ordersPerPage)
}

func (s *orderService) MarkApproved(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	return s.settlePayment(ctx, orderID, userID, domain.OrderApproved)
}

func (s *orderService) MarkRejected(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	return s.settlePayment(ctx, orderID, userID, domain.OrderRejected)
}

// settlePayment moves a created order to its payment outcome. The optimistic
// update tolerates a replayed provider redirect, but an order that moved
// anywhere else in between is reported stale.
func (s *orderService) settlePayment(ctx context.Context, orderID, userID uuid.UUID, outcome domain.OrderStatus) (*domain.Order, error) {
	order, err := s.store.Transition(ctx, orderID, userID, []domain.OrderStatus{domain.OrderCreated}, outcome, "")
	if err == nil {
		if s.metrics != nil {
			s.metrics.OrderTransitions.WithLabelValues(string(outcome)).Inc()
		}
		s.logger.Info("payment outcome recorded",
			"order_id", order.ID, "status", order.Status)
		return order, nil
	}
	if !errors.Is(err, postgres.ErrNoTransition) {
		return nil, fmt.Errorf("failed to record payment outcome: %w", err)
	}

	// Nothing matched: either the order is gone, the redirect is a replay,
	// or the order moved somewhere else. Re-read to tell which.
	order, err = s.store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status == outcome {
		return order, nil
	}
	return nil, domain.ErrStaleStatus
}

func (s *orderService) Cancel(ctx context.Context, orderID, userID uuid.UUID, reason string) (*domain.Order, error) {
	// A padded or whitespace-only reason is no reason at all.
	reason = strings.TrimSpace(reason)

	order, err := s.store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderCancelled {
		return order, nil
	}
	if order.Status.RequiresCancelReason() && reason == "" {
		return nil, domain.ErrMissingReason
	}

	// Without a reason the update only matches statuses that do not demand
	// one, so a concurrent approval cannot slip a reasonless cancel through.
	from := []domain.OrderStatus{
		domain.OrderCreated, domain.OrderApproved,
		domain.OrderRejected, domain.OrderProcessing,
	}
	if reason == "" {
		from = []domain.OrderStatus{domain.OrderCreated, domain.OrderRejected}
	}
	cancelled, err := s.store.Transition(ctx, orderID, userID, from, domain.OrderCancelled, reason)
	if err == nil {
		if s.metrics != nil {
			s.metrics.OrderTransitions.WithLabelValues(string(domain.OrderCancelled)).Inc()
		}
		s.logger.Info("order cancelled",
			"order_id", cancelled.ID, "had_reason", reason != "")
		return cancelled, nil
	}
	if !errors.Is(err, postgres.ErrNoTransition) {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order, err = s.store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderCancelled {
		return order, nil
	}
	if order.Status.RequiresCancelReason() && reason == "" {
		return nil, domain.ErrMissingReason
	}
	return nil, domain.ErrStaleStatus
}
