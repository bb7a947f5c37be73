package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/queue"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const maxWebhookBytes = 65_536

// PaymentWebhook verifies a provider notification and hands the
// outcome to the payment event sink. Outcomes that could not be recorded
// get a 503 so the provider delivers them again.
func (app *Application) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("unable to read request body"))
		return
	}

	event, err := app.webhooks.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if event == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	logger := app.contextGetLogger(r).With("event_id", event.ID, "hold_id", event.HoldID, "outcome", event.Outcome)

	err = app.paymentEvents.PublishPaymentEvent(r.Context(), *event)
	if err != nil {
		if !queue.IsPermanent(err) {
			app.serviceUnavailableResponse(w, r, err)
			return
		}

		logger.Warn("payment event dropped", "error", err)
	}

	w.WriteHeader(http.StatusAccepted)
}

// FinalizeHold applies a payment outcome reported by an operator, e.g. for
// payments taken at the box office.
func (app *Application) FinalizeHold(w http.ResponseWriter, r *http.Request, holdId openapi_types.UUID) {
	var input api.PaymentOutcomeRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	event := domain.PaymentEvent{
		ID:         fmt.Sprintf("manual-%s", uuid.NewString()),
		Outcome:    domain.PaymentOutcome(input.Outcome),
		HoldID:     holdId,
		PaymentRef: input.PaymentRef,
		Reason:     input.Reason,
	}

	if input.CustomerEmail != nil {
		event.CustomerEmail = string(*input.CustomerEmail)
	}

	booking, err := app.reservations.Finalize(r.Context(), event)
	if err != nil {
		app.handleError(w, r, err)
		return
	}

	resp := api.PaymentOutcomeResponse{
		HoldId:  holdId,
		Outcome: input.Outcome,
	}

	if booking != nil {
		resp.Booking = toBookingResponse(booking)
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
