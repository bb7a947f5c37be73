package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is created only by promoting a hold and is never deleted.
// Cancellation is itself a ledger transition.
type Booking struct {
	ID           uuid.UUID
	ShowID       int
	HoldID       uuid.UUID
	SeatIDs      []string
	HolderToken  string
	TotalPrice   decimal.Decimal
	PaymentRef   string
	Status       BookingStatus
	ConfirmedAt  time.Time
	CancelledAt  *time.Time
	CancelReason string
}

func (b *Booking) Clone() *Booking {
	c := *b
	c.SeatIDs = append([]string(nil), b.SeatIDs...)
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}

	return &c
}

type BookingSummary struct {
	BookingID   uuid.UUID
	ShowID      int
	MovieTitle  string
	PosterPath  string
	StartsAt    time.Time
	SeatIDs     []string
	TotalPrice  decimal.Decimal
	Status      BookingStatus
	ConfirmedAt time.Time
}

type BookingRepository interface {
	GetSummariesByHolder(ctx context.Context, holderToken string, pagination Pagination) ([]BookingSummary, *Metadata, error)
}
