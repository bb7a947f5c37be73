package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ShowStatus string

const (
	ShowStatusScheduled ShowStatus = "scheduled"
	ShowStatusCancelled ShowStatus = "cancelled"
)

const maxRows = 26 * 27

// Show is one scheduled screening. Everything but the status is fixed at
// creation; seat occupancy lives in the ledger.
type Show struct {
	ID        int
	MovieID   int
	StartsAt  time.Time
	Price     decimal.Decimal
	Layout    []string
	Status    ShowStatus
	CreatedAt time.Time
}

func (s *Show) HasSeat(seatID string) bool {
	for _, id := range s.Layout {
		if id == seatID {
			return true
		}
	}

	return false
}

// IsBookable reports whether new holds may be placed on the show at now.
func (s *Show) IsBookable(now time.Time) bool {
	return s.Status == ShowStatusScheduled && s.StartsAt.After(now)
}

// Showtime is the listing projection of a show.
type Showtime struct {
	ShowID   int
	StartsAt time.Time
	Price    decimal.Decimal
}

// GenerateLayout returns row-major seat identifiers: A1, A2, ..., B1, ...
// Rows past Z continue with AA, AB, ...
func GenerateLayout(rows, seatsPerRow int) ([]string, error) {
	if rows < 1 || rows > maxRows {
		return nil, NewValidationError("rows", fmt.Sprintf("must be between 1 and %d", maxRows))
	}

	if seatsPerRow < 1 || seatsPerRow > 999 {
		return nil, NewValidationError("seatsPerRow", "must be between 1 and 999")
	}

	layout := make([]string, 0, rows*seatsPerRow)

	for r := 0; r < rows; r++ {
		label := rowLabel(r)
		for c := 1; c <= seatsPerRow; c++ {
			layout = append(layout, fmt.Sprintf("%s%d", label, c))
		}
	}

	return layout, nil
}

func rowLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}

	return string(rune('A'+i/26-1)) + string(rune('A'+i%26))
}

type ShowRepository interface {
	Create(ctx context.Context, show *Show) error
	GetById(ctx context.Context, id int) (*Show, error)
	GetUpcomingMovieIds(ctx context.Context, now time.Time) ([]int, error)
	GetShowtimesByMovie(ctx context.Context, movieID int, now time.Time) ([]Showtime, error)
	Invalidate(ctx context.Context, id int) error
}
