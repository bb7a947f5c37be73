package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/ledger"
)

const DefaultHoldTTL = 10 * time.Minute

type Scheduler interface {
	Schedule(hold *domain.Hold)
	Cancel(holdID uuid.UUID)
}

// RefundLog remembers refunded payments so a redelivered outcome is not
// compensated twice.
type RefundLog interface {
	// MarkRefunded records paymentRef and reports whether it was new.
	MarkRefunded(ctx context.Context, paymentRef string) (bool, error)
	// Forget drops paymentRef after a failed refund so a redelivery retries it.
	Forget(ctx context.Context, paymentRef string) error
}

// Service sequences a purchase: check the show, place a hold, wait for the
// payment outcome or the deadline, then confirm or release.
type Service struct {
	ledger    *ledger.Ledger
	shows     domain.ShowRepository
	movies    domain.MovieRepository
	bookings  domain.BookingRepository
	payments  domain.PaymentProvider
	scheduler Scheduler
	cache     SeatMapCache
	notifier  *Notifier
	refunds   RefundLog
	logger    *slog.Logger
	ttl       time.Duration
}

type Config struct {
	Ledger    *ledger.Ledger
	Shows     domain.ShowRepository
	Movies    domain.MovieRepository
	Bookings  domain.BookingRepository
	Payments  domain.PaymentProvider
	Scheduler Scheduler
	Cache     SeatMapCache
	Notifier  *Notifier
	Refunds   RefundLog
	Logger    *slog.Logger
	HoldTTL   time.Duration
}

func NewService(cfg Config) *Service {
	ttl := cfg.HoldTTL
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}

	refunds := cfg.Refunds
	if refunds == nil {
		refunds = NewMemoryRefundLog()
	}

	return &Service{
		ledger:    cfg.Ledger,
		shows:     cfg.Shows,
		movies:    cfg.Movies,
		bookings:  cfg.Bookings,
		payments:  cfg.Payments,
		scheduler: cfg.Scheduler,
		cache:     cfg.Cache,
		notifier:  cfg.Notifier,
		refunds:   refunds,
		logger:    cfg.Logger.With("component", "reservation"),
		ttl:       ttl,
	}
}

func (s *Service) HoldTTL() time.Duration {
	return s.ttl
}

// RequestSeats places a hold on seatIDs for holderToken and arms its
// expiry.
func (s *Service) RequestSeats(ctx context.Context, showID int, seatIDs []string, holderToken string) (*domain.HoldReceipt, error) {
	if holderToken == "" {
		return nil, domain.NewValidationError("holderToken", "must be provided")
	}

	if len(seatIDs) == 0 {
		return nil, domain.NewValidationError("seatIds", "must contain at least one seat")
	}

	show, err := s.shows.GetById(ctx, showID)
	if err != nil {
		return nil, err
	}

	if show.Status == domain.ShowStatusCancelled {
		return nil, domain.ErrShowNotBookable
	}

	if !show.IsBookable(s.ledger.Now()) {
		return nil, domain.NewValidationError("showId", "show has already started")
	}

	for _, id := range seatIDs {
		if !show.HasSeat(id) {
			return nil, domain.NewValidationError("seatIds", fmt.Sprintf("seat %s is not part of show %d", id, showID))
		}
	}

	hold, err := s.ledger.TryHold(ctx, showID, seatIDs, holderToken, s.ttl)
	if err != nil {
		if errors.Is(err, domain.ErrSeatUnavailable) {
			s.notifier.SeatConflict(ctx, showID)
		}
		return nil, err
	}

	s.scheduler.Schedule(hold)
	s.notifier.HoldPlaced(ctx, hold)

	s.logger.Info("hold placed", "hold_id", hold.ID, "show_id", showID, "seats", hold.SeatIDs, "expires_at", hold.ExpiresAt)

	return domain.NewHoldReceipt(hold, show.Price), nil
}

// Finalize applies a payment outcome to its hold. Redelivering the same
// outcome leaves the ledger unchanged and publishes nothing new.
func (s *Service) Finalize(ctx context.Context, event domain.PaymentEvent) (*domain.Booking, error) {
	err := event.Validate()
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("hold_id", event.HoldID, "event_id", event.ID, "outcome", event.Outcome)

	if event.Outcome == domain.PaymentFailed {
		released, err := s.ledger.Release(ctx, event.HoldID, domain.ReleaseReasonPaymentFailed)
		if err != nil {
			return nil, err
		}

		s.scheduler.Cancel(event.HoldID)

		if released != nil {
			s.notifier.HoldReleased(ctx, released)
			logger.Info("hold released after failed payment", "reason", event.Reason)
		}

		return nil, nil
	}

	booking, created, err := s.ledger.Confirm(ctx, event.HoldID, event.PaymentRef)
	if err != nil {
		if errors.Is(err, domain.ErrHoldExpired) || errors.Is(err, domain.ErrHoldReleased) {
			s.scheduler.Cancel(event.HoldID)
			s.refund(ctx, logger, event.PaymentRef)
		}
		return nil, err
	}

	s.scheduler.Cancel(event.HoldID)

	if created {
		s.notifier.BookingConfirmed(ctx, booking, event.CustomerEmail)
		logger.Info("booking confirmed", "booking_id", booking.ID, "seats", booking.SeatIDs)
	} else if event.PaymentRef != "" && event.PaymentRef != booking.PaymentRef {
		// The seats are already paid for by another payment.
		logger.Warn("duplicate payment for confirmed hold", "booking_id", booking.ID, "payment_ref", event.PaymentRef)
		s.refund(ctx, logger, event.PaymentRef)
	}

	return booking, nil
}

// refund compensates a payment that has no seats to back it. Each payment
// is refunded at most once.
func (s *Service) refund(ctx context.Context, logger *slog.Logger, paymentRef string) {
	if s.payments == nil || paymentRef == "" {
		return
	}

	first, err := s.refunds.MarkRefunded(ctx, paymentRef)
	if err != nil {
		logger.Warn("failed to record refund, refunding anyway", "payment_ref", paymentRef, "error", err)
	} else if !first {
		logger.Debug("payment already refunded", "payment_ref", paymentRef)
		return
	}

	err = s.payments.Refund(ctx, paymentRef)
	if err != nil {
		logger.Error("failed to refund payment", "payment_ref", paymentRef, "error", err)

		forgetErr := s.refunds.Forget(ctx, paymentRef)
		if forgetErr != nil {
			logger.Warn("failed to clear refund record", "payment_ref", paymentRef, "error", forgetErr)
		}
		return
	}

	logger.Info("payment refunded", "payment_ref", paymentRef)
}

// ReleaseHold cancels a hold on behalf of its holder.
func (s *Service) ReleaseHold(ctx context.Context, holdID uuid.UUID, holderToken string) error {
	_, err := s.ownedHold(ctx, holdID, holderToken)
	if err != nil {
		return err
	}

	released, err := s.ledger.Release(ctx, holdID, domain.ReleaseReasonCancelled)
	if err != nil {
		return err
	}

	s.scheduler.Cancel(holdID)

	if released != nil {
		s.notifier.HoldReleased(ctx, released)
	}

	return nil
}

// GetHold returns the holder's hold and, once confirmed, its booking.
func (s *Service) GetHold(ctx context.Context, holdID uuid.UUID, holderToken string) (*domain.Hold, *domain.Booking, error) {
	hold, err := s.ownedHold(ctx, holdID, holderToken)
	if err != nil {
		return nil, nil, err
	}

	if hold.Status != domain.HoldStatusConfirmed {
		return hold, nil, nil
	}

	booking, err := s.ledger.BookingByHold(ctx, holdID)
	if err != nil {
		return nil, nil, err
	}

	return hold, booking, nil
}

// Checkout opens a payment session for a live hold. The provider call runs
// outside of any ledger lock.
func (s *Service) Checkout(ctx context.Context, holdID uuid.UUID, holderToken string) (*domain.CheckoutSession, error) {
	hold, err := s.ownedHold(ctx, holdID, holderToken)
	if err != nil {
		return nil, err
	}

	switch hold.Status {
	case domain.HoldStatusConfirmed:
		return nil, fmt.Errorf("%w: hold is already confirmed", domain.ErrEditConflict)
	case domain.HoldStatusReleased:
		if hold.ReleaseReason == domain.ReleaseReasonExpired {
			return nil, domain.ErrHoldExpired
		}
		return nil, domain.ErrHoldReleased
	}

	if hold.ExpiredAt(s.ledger.Now()) {
		return nil, domain.ErrHoldExpired
	}

	show, err := s.shows.GetById(ctx, hold.ShowID)
	if err != nil {
		return nil, err
	}

	movie, err := s.movies.GetById(ctx, show.MovieID)
	if err != nil {
		return nil, err
	}

	return s.payments.CreateCheckoutSession(ctx, domain.NewHoldReceipt(hold, show.Price), movie, show)
}

// CancelBooking returns a booking's seats to sale and refunds its payment.
// Cancelling twice refunds once.
func (s *Service) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	if reason == "" {
		reason = "cancelled"
	}

	cancelled, err := s.ledger.CancelBooking(ctx, bookingID, reason)
	if err != nil {
		return nil, err
	}

	if cancelled == nil {
		return s.ledger.Booking(ctx, bookingID)
	}

	s.notifier.BookingCancelled(ctx, cancelled)
	s.refund(ctx, s.logger.With("booking_id", bookingID), cancelled.PaymentRef)

	s.logger.Info("booking cancelled", "booking_id", bookingID, "reason", reason)

	return cancelled, nil
}

// Availability returns the show's seat map. Reads may come from the cache
// and lag in-flight holds by up to the cache TTL.
func (s *Service) Availability(ctx context.Context, showID int) (*domain.SeatMap, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, showID)
		if err != nil {
			s.logger.Warn("failed to read seat map cache", "show_id", showID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	m, err := s.ledger.SeatMap(ctx, showID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		err = s.cache.Set(ctx, m)
		if err != nil {
			s.logger.Warn("failed to write seat map cache", "show_id", showID, "error", err)
		}
	}

	return m, nil
}

func (s *Service) ListBookings(ctx context.Context, holderToken string, pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {
	return s.bookings.GetSummariesByHolder(ctx, holderToken, pagination)
}

// ownedHold hides holds of other holders behind ErrRecordNotFound.
func (s *Service) ownedHold(ctx context.Context, holdID uuid.UUID, holderToken string) (*domain.Hold, error) {
	hold, err := s.ledger.Hold(ctx, holdID)
	if err != nil {
		return nil, err
	}

	if hold.HolderToken != holderToken {
		return nil, domain.ErrRecordNotFound
	}

	return hold, nil
}
