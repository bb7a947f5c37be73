package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultMaxAttempts     = 5
	defaultInitialInterval = 20 * time.Millisecond
	defaultMaxInterval     = 500 * time.Millisecond

	lockStripes = 64
)

// Ledger owns every seat state transition. Transitions on one show are
// serialized by a lock striped on the show id and guarded in the store by
// the show's seat version, so concurrent writers from other processes lose with
// ErrEditConflict and are retried against a fresh seat map.
type Ledger struct {
	store       domain.LedgerStore
	now         func() time.Time
	maxAttempts uint

	locks [lockStripes]sync.Mutex
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func WithMaxAttempts(n uint) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

func New(store domain.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Ledger) Now() time.Time {
	return l.now()
}

// TryHold moves every requested seat from free to held, or none of them.
func (l *Ledger) TryHold(ctx context.Context, showID int, seatIDs []string, holderToken string, ttl time.Duration) (*domain.Hold, error) {
	if holderToken == "" {
		return nil, domain.NewValidationError("holderToken", "must be provided")
	}

	if ttl <= 0 {
		return nil, domain.NewValidationError("ttl", "must be positive")
	}

	requested := dedupe(seatIDs)
	if len(requested) == 0 {
		return nil, domain.NewValidationError("seatIds", "must contain at least one seat")
	}

	var hold *domain.Hold

	err := l.transition(ctx, showID, func(m *domain.SeatMap) (*domain.LedgerChange, error) {
		ordered, err := inLayoutOrder(m, requested)
		if err != nil {
			return nil, err
		}

		var conflicts []string
		for _, id := range ordered {
			if m.Seats[id].Status != domain.SeatFree {
				conflicts = append(conflicts, id)
			}
		}

		if len(conflicts) > 0 {
			return nil, &domain.SeatUnavailableError{Seats: conflicts}
		}

		now := l.now()
		hold = &domain.Hold{
			ID:          uuid.New(),
			ShowID:      showID,
			SeatIDs:     ordered,
			HolderToken: holderToken,
			Status:      domain.HoldStatusHeld,
			CreatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}

		seats := make([]domain.SeatState, 0, len(ordered))
		for _, id := range ordered {
			seats = append(seats, domain.HeldSeat(id, hold))
		}

		return &domain.LedgerChange{Seats: seats, Holds: []*domain.Hold{hold}}, nil
	})
	if err != nil {
		return nil, err
	}

	return hold, nil
}

// Confirm promotes a live hold to a booking. Confirming an already
// confirmed hold returns its booking with created set to false.
func (l *Ledger) Confirm(ctx context.Context, holdID uuid.UUID, paymentRef string) (booking *domain.Booking, created bool, err error) {
	current, err := l.store.GetHold(ctx, holdID)
	if err != nil {
		return nil, false, err
	}

	err = l.transition(ctx, current.ShowID, func(m *domain.SeatMap) (*domain.LedgerChange, error) {
		created = false

		hold, err := l.store.GetHold(ctx, holdID)
		if err != nil {
			return nil, err
		}

		switch hold.Status {
		case domain.HoldStatusConfirmed:
			booking, err = l.store.GetBookingByHold(ctx, holdID)
			return nil, err
		case domain.HoldStatusReleased:
			if hold.ReleaseReason == domain.ReleaseReasonExpired {
				return nil, domain.ErrHoldExpired
			}
			return nil, domain.ErrHoldReleased
		}

		now := l.now()
		if hold.ExpiredAt(now) {
			return nil, domain.ErrHoldExpired
		}

		for _, id := range hold.SeatIDs {
			seat := m.Seats[id]
			if seat.Status != domain.SeatHeld || seat.HoldID == nil || *seat.HoldID != hold.ID {
				return nil, fmt.Errorf("seat %s of hold %s is %s", id, hold.ID, seat.Status)
			}
		}

		booking = &domain.Booking{
			ID:          uuid.New(),
			ShowID:      hold.ShowID,
			HoldID:      hold.ID,
			SeatIDs:     append([]string(nil), hold.SeatIDs...),
			HolderToken: hold.HolderToken,
			TotalPrice:  m.Price.Mul(decimal.NewFromInt(int64(len(hold.SeatIDs)))),
			PaymentRef:  paymentRef,
			Status:      domain.BookingStatusConfirmed,
			ConfirmedAt: now,
		}

		hold.Status = domain.HoldStatusConfirmed
		hold.ResolvedAt = &now

		seats := make([]domain.SeatState, 0, len(hold.SeatIDs))
		for _, id := range hold.SeatIDs {
			seats = append(seats, domain.ConfirmedSeat(id, booking))
		}

		created = true

		return &domain.LedgerChange{Seats: seats, Holds: []*domain.Hold{hold}, Booking: booking}, nil
	})
	if err != nil {
		return nil, false, err
	}

	return booking, created, nil
}

// Release returns a held hold's seats to free. It returns a nil hold when
// the hold was already confirmed or released.
func (l *Ledger) Release(ctx context.Context, holdID uuid.UUID, reason string) (*domain.Hold, error) {
	return l.release(ctx, holdID, reason, false)
}

// Expire releases a hold only if it is still held and its deadline has
// passed. A timer firing after a confirmation is a no-op.
func (l *Ledger) Expire(ctx context.Context, holdID uuid.UUID) (*domain.Hold, error) {
	return l.release(ctx, holdID, domain.ReleaseReasonExpired, true)
}

func (l *Ledger) release(ctx context.Context, holdID uuid.UUID, reason string, onlyExpired bool) (*domain.Hold, error) {
	current, err := l.store.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}

	var released *domain.Hold

	err = l.transition(ctx, current.ShowID, func(m *domain.SeatMap) (*domain.LedgerChange, error) {
		released = nil

		hold, err := l.store.GetHold(ctx, holdID)
		if err != nil {
			return nil, err
		}

		if !hold.IsActive() {
			return nil, nil
		}

		now := l.now()
		if onlyExpired && !hold.ExpiredAt(now) {
			return nil, nil
		}

		seats := make([]domain.SeatState, 0, len(hold.SeatIDs))
		for _, id := range hold.SeatIDs {
			seat := m.Seats[id]
			if seat.Status == domain.SeatHeld && seat.HoldID != nil && *seat.HoldID == hold.ID {
				seats = append(seats, domain.FreeSeat(id))
			}
		}

		hold.Status = domain.HoldStatusReleased
		hold.ReleaseReason = reason
		hold.ResolvedAt = &now
		released = hold

		return &domain.LedgerChange{Seats: seats, Holds: []*domain.Hold{hold}}, nil
	})
	if err != nil {
		return nil, err
	}

	return released, nil
}

// CancelBooking is the compensating transition for refunds and admin
// overrides. It returns a nil booking when the booking was already
// cancelled.
func (l *Ledger) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	current, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var cancelled *domain.Booking

	err = l.transition(ctx, current.ShowID, func(m *domain.SeatMap) (*domain.LedgerChange, error) {
		cancelled = nil

		booking, err := l.store.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		if booking.Status == domain.BookingStatusCancelled {
			return nil, nil
		}

		seats := make([]domain.SeatState, 0, len(booking.SeatIDs))
		for _, id := range booking.SeatIDs {
			seat := m.Seats[id]
			if seat.Status == domain.SeatConfirmed && seat.BookingID != nil && *seat.BookingID == booking.ID {
				seats = append(seats, domain.FreeSeat(id))
			}
		}

		now := l.now()
		booking.Status = domain.BookingStatusCancelled
		booking.CancelledAt = &now
		booking.CancelReason = reason
		cancelled = booking

		return &domain.LedgerChange{Seats: seats, Booking: booking}, nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (l *Ledger) SeatMap(ctx context.Context, showID int) (*domain.SeatMap, error) {
	return l.store.GetSeatMap(ctx, showID)
}

func (l *Ledger) Hold(ctx context.Context, holdID uuid.UUID) (*domain.Hold, error) {
	return l.store.GetHold(ctx, holdID)
}

func (l *Ledger) Booking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return l.store.GetBooking(ctx, bookingID)
}

func (l *Ledger) BookingByHold(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error) {
	return l.store.GetBookingByHold(ctx, holdID)
}

func (l *Ledger) ActiveHolds(ctx context.Context) ([]*domain.Hold, error) {
	return l.store.ListActiveHolds(ctx)
}

func (l *Ledger) ExpiredHolds(ctx context.Context, limit int) ([]*domain.Hold, error) {
	return l.store.ListExpiredHolds(ctx, l.now(), limit)
}

type changeFunc func(m *domain.SeatMap) (*domain.LedgerChange, error)

// transition reads the show's seat map, derives a change and applies it
// with a version check. Only version conflicts are retried. A nil change
// means there is nothing to write.
func (l *Ledger) transition(ctx context.Context, showID int, fn changeFunc) error {
	lock := l.lockFor(showID)
	lock.Lock()
	defer lock.Unlock()

	op := func() (struct{}, error) {
		m, err := l.store.GetSeatMap(ctx, showID)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		change, err := fn(m)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		if change == nil {
			return struct{}{}, nil
		}

		change.ShowID = showID
		change.ExpectedVersion = m.Version

		err = l.store.Apply(ctx, *change)
		if err != nil {
			if errors.Is(err, domain.ErrEditConflict) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialInterval
	b.MaxInterval = defaultMaxInterval

	_, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(l.maxAttempts))

	return err
}

// lockFor never takes more than one stripe at a time, so shows sharing a
// stripe only wait on each other.
func (l *Ledger) lockFor(showID int) *sync.Mutex {
	return &l.locks[uint(showID)%lockStripes]
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

func inLayoutOrder(m *domain.SeatMap, ids []string) ([]string, error) {
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := m.Seats[id]; !ok {
			return nil, domain.NewValidationError("seatIds", fmt.Sprintf("seat %s is not part of show %d", id, m.ShowID))
		}
		requested[id] = struct{}{}
	}

	ordered := make([]string, 0, len(ids))
	for _, id := range m.Layout {
		if _, ok := requested[id]; ok {
			ordered = append(ordered, id)
		}
	}

	return ordered, nil
}
