package reservation

import (
	"context"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/metinatakli/seat-reservation/internal/reservation"

type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event domain.BookingConfirmedEvent) error
	PublishSeatsReleased(ctx context.Context, event domain.SeatsReleasedEvent) error
}

type SeatMapCache interface {
	// Get returns a nil map on a cache miss.
	Get(ctx context.Context, showID int) (*domain.SeatMap, error)
	Set(ctx context.Context, m *domain.SeatMap) error
	Invalidate(ctx context.Context, showID int) error
}

// Notifier fans ledger outcomes out to the event publisher, the
// availability cache and the reservation metrics. Failures are logged and
// never undo a committed ledger transition.
type Notifier struct {
	publisher EventPublisher
	cache     SeatMapCache
	logger    *slog.Logger

	holdsPlaced       metric.Int64Counter
	holdsReleased     metric.Int64Counter
	holdsExpired      metric.Int64Counter
	bookingsConfirmed metric.Int64Counter
	bookingsCancelled metric.Int64Counter
	seatConflicts     metric.Int64Counter
}

func NewNotifier(publisher EventPublisher, cache SeatMapCache, logger *slog.Logger) (*Notifier, error) {
	meter := otel.Meter(meterName)

	n := &Notifier{
		publisher: publisher,
		cache:     cache,
		logger:    logger.With("component", "reservation"),
	}

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&n.holdsPlaced, "reservation.holds.placed", "Holds placed on seats"},
		{&n.holdsReleased, "reservation.holds.released", "Holds released before their deadline"},
		{&n.holdsExpired, "reservation.holds.expired", "Holds released at their deadline"},
		{&n.bookingsConfirmed, "reservation.bookings.confirmed", "Holds promoted to bookings"},
		{&n.bookingsCancelled, "reservation.bookings.cancelled", "Bookings cancelled by refund or override"},
		{&n.seatConflicts, "reservation.seat.conflicts", "Hold requests rejected because a seat was taken"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	return n, nil
}

func (n *Notifier) HoldPlaced(ctx context.Context, hold *domain.Hold) {
	n.holdsPlaced.Add(ctx, 1, showAttr(hold.ShowID))
	n.invalidate(ctx, hold.ShowID)
}

func (n *Notifier) SeatConflict(ctx context.Context, showID int) {
	n.seatConflicts.Add(ctx, 1, showAttr(showID))
}

func (n *Notifier) HoldReleased(ctx context.Context, hold *domain.Hold) {
	n.holdsReleased.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("show_id", hold.ShowID),
		attribute.String("reason", hold.ReleaseReason),
	))
	n.seatsReleased(ctx, domain.NewSeatsReleasedEvent(hold))
}

// HoldExpired is the expiry scheduler's hook.
func (n *Notifier) HoldExpired(ctx context.Context, hold *domain.Hold) {
	n.holdsExpired.Add(ctx, 1, showAttr(hold.ShowID))
	n.seatsReleased(ctx, domain.NewSeatsReleasedEvent(hold))
}

func (n *Notifier) BookingConfirmed(ctx context.Context, booking *domain.Booking, customerEmail string) {
	n.bookingsConfirmed.Add(ctx, 1, showAttr(booking.ShowID))
	n.invalidate(ctx, booking.ShowID)

	if n.publisher == nil {
		return
	}

	err := n.publisher.PublishBookingConfirmed(ctx, domain.NewBookingConfirmedEvent(booking, customerEmail))
	if err != nil {
		n.logger.Error("failed to publish booking confirmed event", "booking_id", booking.ID, "error", err)
	}
}

func (n *Notifier) BookingCancelled(ctx context.Context, booking *domain.Booking) {
	n.bookingsCancelled.Add(ctx, 1, showAttr(booking.ShowID))

	releasedAt := time.Now()
	if booking.CancelledAt != nil {
		releasedAt = *booking.CancelledAt
	}

	n.seatsReleased(ctx, domain.SeatsReleasedEvent{
		ShowID:     booking.ShowID,
		HoldID:     booking.HoldID,
		SeatIDs:    append([]string(nil), booking.SeatIDs...),
		Reason:     booking.CancelReason,
		ReleasedAt: releasedAt,
	})
}

func (n *Notifier) seatsReleased(ctx context.Context, event domain.SeatsReleasedEvent) {
	n.invalidate(ctx, event.ShowID)

	if n.publisher == nil {
		return
	}

	err := n.publisher.PublishSeatsReleased(ctx, event)
	if err != nil {
		n.logger.Error("failed to publish seats released event", "hold_id", event.HoldID, "error", err)
	}
}

func (n *Notifier) invalidate(ctx context.Context, showID int) {
	if n.cache == nil {
		return
	}

	err := n.cache.Invalidate(ctx, showID)
	if err != nil {
		n.logger.Warn("failed to invalidate seat map cache", "show_id", showID, "error", err)
	}
}

func showAttr(showID int) metric.AddOption {
	return metric.WithAttributes(attribute.Int("show_id", showID))
}
