package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"
)

const holdIDKey = "hold_id"

type StripePaymentProvider struct {
	failureUrl    string
	successUrl    string
	webhookSecret string
}

func NewStripePaymentProvider(failureUrl, successUrl, webhookSecret string) *StripePaymentProvider {
	return &StripePaymentProvider{
		failureUrl:    failureUrl,
		successUrl:    successUrl,
		webhookSecret: webhookSecret,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	receipt *domain.HoldReceipt,
	movie *domain.Movie,
	show *domain.Show) (*domain.CheckoutSession, error) {

	priceCents := show.Price.Mul(decimal.NewFromInt(100)).IntPart()

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, seatID := range receipt.SeatIDs {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(priceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%s - Seat %s", movie.Title, seatID)),
					Description: stripe.String(fmt.Sprintf(
						"Showtime: %s • Hold expires: %s",
						show.StartsAt.Format("Jan 2, 2006 15:04"),
						receipt.ExpiresAt.Format("15:04"),
					)),
				},
			},
			Quantity: stripe.Int64(1),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata: map[string]string{
			holdIDKey: receipt.HoldID.String(),
			"show_id": fmt.Sprint(receipt.ShowID),
			"seats":   strings.Join(receipt.SeatIDs, ","),
		},
		ClientReferenceID: stripe.String(receipt.HoldID.String()),
	}
	params.Context = ctx

	cs, err := session.New(params)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{ID: cs.ID, URL: cs.URL}, nil
}

func (s *StripePaymentProvider) Refund(ctx context.Context, paymentRef string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
	}
	params.Context = ctx

	_, err := refund.New(params)

	return err
}

// ParseWebhook verifies the signature and projects the Stripe event onto a
// PaymentEvent. It returns nil for events that carry no payment outcome.
func (s *StripePaymentProvider) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, domain.NewValidationError("signature", err.Error())
	}

	return projectEvent(event)
}

func projectEvent(event stripe.Event) (*domain.PaymentEvent, error) {
	var outcome domain.PaymentOutcome
	var reason string

	var cs stripe.CheckoutSession

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
	default:
		return nil, nil
	}

	err := json.Unmarshal(event.Data.Raw, &cs)
	if err != nil {
		return nil, domain.NewValidationError("data", "malformed checkout session")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		// Delayed payment methods complete unpaid and report later.
		if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			return nil, nil
		}
		outcome = domain.PaymentConfirmed
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		outcome = domain.PaymentConfirmed
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		outcome = domain.PaymentFailed
		reason = "async payment failed"
	case stripe.EventTypeCheckoutSessionExpired:
		outcome = domain.PaymentFailed
		reason = "checkout session expired"
	}

	holdID, err := uuid.Parse(cs.Metadata[holdIDKey])
	if err != nil {
		return nil, domain.NewValidationError(holdIDKey, "must be a valid UUID")
	}

	paymentEvent := &domain.PaymentEvent{
		ID:      event.ID,
		Outcome: outcome,
		HoldID:  holdID,
		Reason:  reason,
	}

	if cs.PaymentIntent != nil {
		paymentEvent.PaymentRef = cs.PaymentIntent.ID
	}

	if cs.CustomerDetails != nil {
		paymentEvent.CustomerEmail = cs.CustomerDetails.Email
	}

	return paymentEvent, nil
}
