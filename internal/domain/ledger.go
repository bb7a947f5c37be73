package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerChange is one atomic transition of a show's seat records. It is
// applied only if the show's seat version still equals ExpectedVersion.
type LedgerChange struct {
	ShowID          int
	ExpectedVersion int
	Seats           []SeatState
	Holds           []*Hold
	Booking         *Booking
}

type LedgerStore interface {
	GetSeatMap(ctx context.Context, showID int) (*SeatMap, error)
	GetHold(ctx context.Context, id uuid.UUID) (*Hold, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByHold(ctx context.Context, holdID uuid.UUID) (*Booking, error)
	// Apply returns ErrEditConflict when the seat version has moved.
	Apply(ctx context.Context, change LedgerChange) error
	ListActiveHolds(ctx context.Context) ([]*Hold, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*Hold, error)
}
