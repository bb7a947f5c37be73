package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "held"
	HoldStatusConfirmed HoldStatus = "confirmed"
	HoldStatusReleased  HoldStatus = "released"
)

const (
	ReleaseReasonExpired       = "expired"
	ReleaseReasonPaymentFailed = "payment_failed"
	ReleaseReasonCancelled     = "cancelled_by_holder"
)

// Hold is a time-bounded claim on a set of seats. Held is the only
// non-terminal status.
type Hold struct {
	ID            uuid.UUID
	ShowID        int
	SeatIDs       []string
	HolderToken   string
	Status        HoldStatus
	ReleaseReason string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ResolvedAt    *time.Time
}

// ExpiredAt reports whether the deadline has passed at now. A hold is
// expired at its deadline exactly.
func (h *Hold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

func (h *Hold) IsActive() bool {
	return h.Status == HoldStatusHeld
}

func (h *Hold) Clone() *Hold {
	c := *h
	c.SeatIDs = append([]string(nil), h.SeatIDs...)
	if h.ResolvedAt != nil {
		t := *h.ResolvedAt
		c.ResolvedAt = &t
	}

	return &c
}

// HoldReceipt is what the buyer gets back from a successful reservation.
type HoldReceipt struct {
	HoldID      uuid.UUID
	ShowID      int
	SeatIDs     []string
	HolderToken string
	ExpiresAt   time.Time
	TotalPrice  decimal.Decimal
}

func NewHoldReceipt(hold *Hold, unitPrice decimal.Decimal) *HoldReceipt {
	return &HoldReceipt{
		HoldID:      hold.ID,
		ShowID:      hold.ShowID,
		SeatIDs:     append([]string(nil), hold.SeatIDs...),
		HolderToken: hold.HolderToken,
		ExpiresAt:   hold.ExpiresAt,
		TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(len(hold.SeatIDs)))),
	}
}
