package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeatsReleasedEvent is emitted whenever a hold's seats return to free.
type SeatsReleasedEvent struct {
	HoldID     uuid.UUID `json:"holdId"`
	ShowID     int       `json:"showId"`
	SeatIDs    []string  `json:"seatIds"`
	Reason     string    `json:"reason"`
	ReleasedAt time.Time `json:"releasedAt"`
}

// BookingConfirmedEvent carries enough for downstream consumers to notify
// the buyer without reading the store.
type BookingConfirmedEvent struct {
	BookingID     uuid.UUID       `json:"bookingId"`
	HoldID        uuid.UUID       `json:"holdId"`
	ShowID        int             `json:"showId"`
	SeatIDs       []string        `json:"seatIds"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
	ConfirmedAt   time.Time       `json:"confirmedAt"`
}

func NewSeatsReleasedEvent(hold *Hold) SeatsReleasedEvent {
	releasedAt := time.Now()
	if hold.ResolvedAt != nil {
		releasedAt = *hold.ResolvedAt
	}

	return SeatsReleasedEvent{
		HoldID:     hold.ID,
		ShowID:     hold.ShowID,
		SeatIDs:    append([]string(nil), hold.SeatIDs...),
		Reason:     hold.ReleaseReason,
		ReleasedAt: releasedAt,
	}
}

func NewBookingConfirmedEvent(booking *Booking, customerEmail string) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:     booking.ID,
		HoldID:        booking.HoldID,
		ShowID:        booking.ShowID,
		SeatIDs:       append([]string(nil), booking.SeatIDs...),
		TotalPrice:    booking.TotalPrice,
		CustomerEmail: customerEmail,
		ConfirmedAt:   booking.ConfirmedAt,
	}
}
