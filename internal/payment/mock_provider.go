package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metinatakli/seat-reservation/internal/domain"
)

// MockPaymentProvider stands in for Stripe in development. Checkout links
// point at the configured success page and refunds always succeed.
type MockPaymentProvider struct {
	successUrl string
}

func NewMockPaymentProvider(successUrl string) *MockPaymentProvider {
	return &MockPaymentProvider{successUrl: successUrl}
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	receipt *domain.HoldReceipt,
	movie *domain.Movie,
	show *domain.Show) (*domain.CheckoutSession, error) {

	id := fmt.Sprintf("cs_mock_%s", receipt.HoldID)

	return &domain.CheckoutSession{
		ID:  id,
		URL: fmt.Sprintf("%s?session_id=%s", m.successUrl, id),
	}, nil
}

func (m *MockPaymentProvider) Refund(ctx context.Context, paymentRef string) error {
	return nil
}

// ParseWebhook accepts an unsigned PaymentEvent encoded as JSON.
func (m *MockPaymentProvider) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	var event domain.PaymentEvent

	err := json.Unmarshal(payload, &event)
	if err != nil {
		return nil, domain.NewValidationError("body", "must be a payment event")
	}

	err = event.Validate()
	if err != nil {
		return nil, err
	}

	return &event, nil
}
