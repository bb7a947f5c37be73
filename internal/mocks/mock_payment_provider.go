package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	receipt *domain.HoldReceipt,
	movie *domain.Movie,
	show *domain.Show) (*domain.CheckoutSession, error) {

	args := m.Called(ctx, receipt, movie, show)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) Refund(ctx context.Context, paymentRef string) error {
	args := m.Called(ctx, paymentRef)
	return args.Error(0)
}
