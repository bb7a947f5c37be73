package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/queue"
)

// InlineEvents stands in for the broker when none is configured. Payment
// outcomes are applied by the caller and confirmation mails go out on a
// background goroutine.
type InlineEvents struct {
	app *Application
	wg  sync.WaitGroup
}

func (e *InlineEvents) PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	return e.app.applyPaymentEvent(ctx, event)
}

func (e *InlineEvents) PublishBookingConfirmed(ctx context.Context, event domain.BookingConfirmedEvent) error {
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				e.app.logger.Error("panic while sending booking confirmation", "booking_id", event.BookingID, "panic", err)
			}
		}()

		err := e.app.sendBookingConfirmation(context.WithoutCancel(ctx), event)
		if err != nil {
			e.app.logger.Error("failed to send booking confirmation", "booking_id", event.BookingID, "error", err)
		}
	}()

	return nil
}

func (e *InlineEvents) PublishSeatsReleased(ctx context.Context, event domain.SeatsReleasedEvent) error {
	e.app.logger.Debug("seats released", "hold_id", event.HoldID, "show_id", event.ShowID, "reason", event.Reason)
	return nil
}

// Wait blocks until every pending confirmation mail has been handled.
func (e *InlineEvents) Wait() {
	e.wg.Wait()
}

// applyPaymentEvent finalizes the hold named by a payment event. Outcomes
// that can never succeed on redelivery are marked permanent.
func (app *Application) applyPaymentEvent(ctx context.Context, event domain.PaymentEvent) error {
	_, err := app.reservations.Finalize(ctx, event)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrHoldExpired),
		errors.Is(err, domain.ErrHoldReleased),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrRecordNotFound):
		return queue.Permanent(err)
	default:
		return err
	}
}

// sendBookingConfirmation mails the buyer their tickets. Bookings paid
// without an email address are skipped.
func (app *Application) sendBookingConfirmation(ctx context.Context, event domain.BookingConfirmedEvent) error {
	if event.CustomerEmail == "" {
		return nil
	}

	show, err := app.showRepo.GetById(ctx, event.ShowID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return queue.Permanent(err)
		}
		return err
	}

	movie, err := app.movieRepo.GetById(ctx, show.MovieID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return queue.Permanent(err)
		}
		return err
	}

	data := map[string]any{
		"BookingID":  event.BookingID,
		"MovieTitle": movie.Title,
		"StartsAt":   show.StartsAt,
		"SeatIDs":    event.SeatIDs,
		"TotalPrice": event.TotalPrice,
	}

	err = app.mailer.Send(event.CustomerEmail, "booking_confirmed.tmpl", data)
	if err != nil {
		return fmt.Errorf("send booking confirmation: %w", err)
	}

	app.logger.Info("booking confirmation sent", "booking_id", event.BookingID)

	return nil
}
