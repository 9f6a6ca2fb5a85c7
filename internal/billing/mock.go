package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates hosted checkout without calling a real provider.
type MockProvider struct {
	// CreateCheckoutSessionFunc allows customizing session creation behavior.
	CreateCheckoutSessionFunc func(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// Sessions stores created sessions keyed by session ID.
	Sessions map[string]*CheckoutSession

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Sessions: make(map[string]*CheckoutSession),
		CallLog:  []string{},
	}
}

// CreateCheckoutSession records the call and returns a fake redirect URL.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%d, %s)", params.AmountCents, params.Currency))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	sess := &CheckoutSession{
		ID:  "cs_" + uuid.New().String(),
		URL: "https://checkout.example.test/pay/" + uuid.New().String(),
	}
	m.Sessions[sess.ID] = sess
	return sess, nil
}
