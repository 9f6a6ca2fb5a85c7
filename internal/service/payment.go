package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/billing"
	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/telemetry"
)

// PaymentService starts hosted checkout sessions for orders awaiting payment.
type PaymentService interface {
	// StartCheckout creates a hosted checkout session for the order's full
	// amount and returns the URL the customer must be redirected to. The
	// order is not modified: it only leaves the created status when the
	// provider redirects the customer back. Failures are not retried.
	StartCheckout(ctx context.Context, orderID, userID uuid.UUID) (string, error)
}

type paymentService struct {
	orders   OrderReader
	provider billing.Provider
	baseURL  string
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewPaymentService creates a new PaymentService instance. baseURL is the
// externally reachable origin the provider redirects back to.
func NewPaymentService(orders OrderReader, provider billing.Provider, baseURL string, metrics *telemetry.BusinessMetrics, logger *slog.Logger) PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &paymentService{
		orders:   orders,
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		metrics:  metrics,
		logger:   logger.With("service", "payment"),
	}
}

func (s *paymentService) StartCheckout(ctx context.Context, orderID, userID uuid.UUID) (string, error) {
	order, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return "", err
	}
	if order.Status != domain.OrderCreated {
		return "", domain.ErrNotPayable
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		AmountCents: order.TotalCents,
		Currency:    "brl",
		Description: fmt.Sprintf("Pedido %s", order.Number),
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.Number,
			"user_id":      order.UserID.String(),
		},
		SuccessURL: fmt.Sprintf("%s/order/%s/payment-success?session_id={CHECKOUT_SESSION_ID}", s.baseURL, order.ID),
		CancelURL:  fmt.Sprintf("%s/order/%s/payment-cancelled", s.baseURL, order.ID),
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PaymentSessionsFailed.Inc()
		}
		s.logger.Error("failed to start checkout",
			"order_id", order.ID, "error", err)
		return "", &domain.Error{
			Code:    domain.EPAYMENT,
			Message: "Não foi possível iniciar o pagamento. Tente novamente.",
			Op:      "PaymentService.StartCheckout",
			Err:     err,
		}
	}

	if s.metrics != nil {
		s.metrics.PaymentSessionsStarted.Inc()
	}
	s.logger.Info("checkout session started",
		"order_id", order.ID,
		"session_id", sess.ID,
		"amount_cents", order.TotalCents)

	return sess.URL, nil
}
