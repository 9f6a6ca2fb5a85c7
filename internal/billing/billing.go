// Package billing abstracts the payment provider's hosted checkout.
package billing

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when the provider API key is missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrCheckoutFailed is returned when the provider could not create a
	// hosted checkout session.
	ErrCheckoutFailed = errors.New("billing: failed to create checkout session")
)

// Provider creates hosted-checkout sessions at the payment provider.
// Implementations can use Stripe, PagSeguro, Mercado Pago, etc.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout session and returns
	// the URL the customer must be redirected to. The call is bounded by
	// the context deadline; failures are never retried by the provider.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

// CheckoutParams describes a single-charge hosted checkout.
type CheckoutParams struct {
	// AmountCents is the charge in the currency's smallest unit.
	AmountCents int64

	// Currency code (ISO 4217), e.g. "brl".
	Currency string

	// Description appears on the provider's checkout page.
	Description string

	// Metadata is carried through to provider callbacks for correlation.
	Metadata map[string]string

	// SuccessURL and CancelURL are where the provider sends the customer
	// back after the payment attempt.
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider's handle for a hosted checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// ProviderError wraps a provider API failure with the fields worth logging.
type ProviderError struct {
	Message       string
	Code          string
	OriginalError error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("billing: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("billing: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}
