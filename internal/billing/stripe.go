package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeConfig configures the Stripe provider.
type StripeConfig struct {
	APIKey string

	// Timeout bounds the outbound call to Stripe. Defaults to 15s.
	Timeout time.Duration
}

// IsTestMode reports whether the configured key is a test-mode key.
func (c StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_")
}

// StripeProvider implements Provider using Stripe hosted Checkout.
type StripeProvider struct {
	config StripeConfig
	logger *slog.Logger
}

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(config StripeConfig, logger *slog.Logger) (*StripeProvider, error) {
	if config.APIKey == "" {
		return nil, ErrInvalidAPIKey
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	stripe.Key = config.APIKey

	return &StripeProvider{
		config: config,
		logger: logger.With("provider", "stripe"),
	}, nil
}

// CreateCheckoutSession creates a Stripe Checkout Session in payment mode
// with a single line item carrying the full order amount.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(params.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Description),
					},
					UnitAmount: stripe.Int64(params.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx
	for k, v := range params.Metadata {
		sessionParams.AddMetadata(k, v)
	}

	sess, err := checkoutsession.New(sessionParams)
	if err != nil {
		p.logger.Error("failed to create checkout session",
			"amount_cents", params.AmountCents,
			"error", err)
		return nil, wrapStripeError(err)
	}

	p.logger.Info("checkout session created",
		"session_id", sess.ID,
		"amount_cents", params.AmountCents)

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// wrapStripeError converts a Stripe SDK error into a ProviderError chained
// to ErrCheckoutFailed so callers can match with errors.Is.
func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &ProviderError{
			Message:       stripeErr.Msg,
			Code:          string(stripeErr.Code),
			OriginalError: fmt.Errorf("%w: %v", ErrCheckoutFailed, err),
		}
	}
	return &ProviderError{
		Message:       err.Error(),
		OriginalError: fmt.Errorf("%w: %v", ErrCheckoutFailed, err),
	}
}
