package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test"

type WebhookTestSuite struct {
	suite.Suite
	provider *StripePaymentProvider
	holdID   uuid.UUID
}

func (s *WebhookTestSuite) SetupTest() {
	s.provider = NewStripePaymentProvider("https://example.com/failure", "https://example.com/success", testWebhookSecret)
	s.holdID = uuid.New()
}

func TestWebhookSuite(t *testing.T) {
	suite.Run(t, new(WebhookTestSuite))
}

func (s *WebhookTestSuite) sign(payload string) (string, []byte) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})

	return signed.Header, signed.Payload
}

func checkoutEvent(eventType, paymentStatus, holdID string) string {
	return fmt.Sprintf(`{
		"id": "evt_123",
		"object": "event",
		"type": %q,
		"data": {
			"object": {
				"id": "cs_123",
				"object": "checkout.session",
				"payment_status": %q,
				"payment_intent": "pi_123",
				"customer_details": {"email": "buyer@example.com"},
				"metadata": {"hold_id": %q}
			}
		}
	}`, eventType, paymentStatus, holdID)
}

func (s *WebhookTestSuite) TestParseWebhook() {
	tests := []struct {
		name      string
		payload   string
		want      *domain.PaymentEvent
		wantErr   error
		wantNil   bool
		badHeader bool
	}{
		{
			name:    "should project a paid completed session to a confirmation",
			payload: checkoutEvent("checkout.session.completed", "paid", s.holdID.String()),
			want: &domain.PaymentEvent{
				ID:            "evt_123",
				Outcome:       domain.PaymentConfirmed,
				HoldID:        s.holdID,
				PaymentRef:    "pi_123",
				CustomerEmail: "buyer@example.com",
			},
		},
		{
			name:    "should ignore a completed session awaiting async payment",
			payload: checkoutEvent("checkout.session.completed", "unpaid", s.holdID.String()),
			wantNil: true,
		},
		{
			name:    "should project an expired session to a failure",
			payload: checkoutEvent("checkout.session.expired", "unpaid", s.holdID.String()),
			want: &domain.PaymentEvent{
				ID:            "evt_123",
				Outcome:       domain.PaymentFailed,
				HoldID:        s.holdID,
				PaymentRef:    "pi_123",
				Reason:        "checkout session expired",
				CustomerEmail: "buyer@example.com",
			},
		},
		{
			name:    "should ignore unrelated events",
			payload: checkoutEvent("customer.created", "paid", s.holdID.String()),
			wantNil: true,
		},
		{
			name:    "should reject a hold id that is not a UUID",
			payload: checkoutEvent("checkout.session.completed", "paid", "42"),
			wantErr: domain.ErrValidation,
		},
		{
			name:      "should reject a bad signature",
			payload:   checkoutEvent("checkout.session.completed", "paid", s.holdID.String()),
			badHeader: true,
			wantErr:   domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			header, payload := s.sign(tt.payload)
			if tt.badHeader {
				header = "t=1,v1=deadbeef"
			}

			event, err := s.provider.ParseWebhook(payload, header)

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				return
			}

			s.Require().NoError(err)

			if tt.wantNil {
				s.Nil(event)
				return
			}

			s.Equal(tt.want, event)
		})
	}
}
