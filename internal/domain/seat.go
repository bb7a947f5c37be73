package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SeatStatus string

const (
	SeatFree      SeatStatus = "free"
	SeatHeld      SeatStatus = "held"
	SeatConfirmed SeatStatus = "confirmed"
)

// SeatState is the ledger entry of one (show, seat) pair. HoldID,
// HolderToken and Deadline are set only while held, BookingID only while
// confirmed.
type SeatState struct {
	SeatID      string
	Status      SeatStatus
	HoldID      *uuid.UUID
	HolderToken string
	Deadline    *time.Time
	BookingID   *uuid.UUID
}

func FreeSeat(seatID string) SeatState {
	return SeatState{SeatID: seatID, Status: SeatFree}
}

func HeldSeat(seatID string, hold *Hold) SeatState {
	holdID := hold.ID
	deadline := hold.ExpiresAt

	return SeatState{
		SeatID:      seatID,
		Status:      SeatHeld,
		HoldID:      &holdID,
		HolderToken: hold.HolderToken,
		Deadline:    &deadline,
	}
}

func ConfirmedSeat(seatID string, booking *Booking) SeatState {
	bookingID := booking.ID

	return SeatState{
		SeatID:    seatID,
		Status:    SeatConfirmed,
		BookingID: &bookingID,
	}
}

// SeatMap is a versioned snapshot of every seat of one show. Version is the
// compare-and-update token of the show's seat records.
type SeatMap struct {
	ShowID  int
	Version int
	Price   decimal.Decimal
	Layout  []string
	Seats   map[string]SeatState
}

func (m *SeatMap) Free() []string {
	return m.withStatus(SeatFree)
}

func (m *SeatMap) Held() []string {
	return m.withStatus(SeatHeld)
}

func (m *SeatMap) Confirmed() []string {
	return m.withStatus(SeatConfirmed)
}

// Ordered returns the seat states in layout order.
func (m *SeatMap) Ordered() []SeatState {
	states := make([]SeatState, 0, len(m.Layout))
	for _, id := range m.Layout {
		states = append(states, m.Seats[id])
	}

	return states
}

func (m *SeatMap) withStatus(status SeatStatus) []string {
	ids := make([]string, 0)
	for _, id := range m.Layout {
		if m.Seats[id].Status == status {
			ids = append(ids, id)
		}
	}

	return ids
}

func (m *SeatMap) Clone() *SeatMap {
	c := &SeatMap{
		ShowID:  m.ShowID,
		Version: m.Version,
		Price:   m.Price,
		Layout:  append([]string(nil), m.Layout...),
		Seats:   make(map[string]SeatState, len(m.Seats)),
	}

	for id, s := range m.Seats {
		c.Seats[id] = s
	}

	return c
}

// NewSeatMap returns an all-free seat map for a freshly created show.
func NewSeatMap(show *Show) *SeatMap {
	m := &SeatMap{
		ShowID: show.ID,
		Price:  show.Price,
		Layout: append([]string(nil), show.Layout...),
		Seats:  make(map[string]SeatState, len(show.Layout)),
	}

	for _, id := range show.Layout {
		m.Seats[id] = FreeSeat(id)
	}

	return m
}
