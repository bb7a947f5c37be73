package domain

import (
	"context"

	"github.com/google/uuid"
)

type PaymentOutcome string

const (
	PaymentConfirmed PaymentOutcome = "confirmed"
	PaymentFailed    PaymentOutcome = "failed"
)

// PaymentEvent is the only shape payment notifications take once past the
// webhook boundary.
type PaymentEvent struct {
	ID            string         `json:"id"`
	Outcome       PaymentOutcome `json:"outcome"`
	HoldID        uuid.UUID      `json:"holdId"`
	PaymentRef    string         `json:"paymentRef,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	CustomerEmail string         `json:"customerEmail,omitempty"`
}

func (e PaymentEvent) Validate() error {
	if e.HoldID == uuid.Nil {
		return NewValidationError("holdId", "is required")
	}

	switch e.Outcome {
	case PaymentConfirmed, PaymentFailed:
		return nil
	default:
		return NewValidationError("outcome", "must be confirmed or failed")
	}
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, receipt *HoldReceipt, movie *Movie, show *Show) (*CheckoutSession, error)
	Refund(ctx context.Context, paymentRef string) error
}
