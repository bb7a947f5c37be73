package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

// MemoryStore is a process-local LedgerStore. Values are copied on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	maps     map[int]*domain.SeatMap
	holds    map[uuid.UUID]*domain.Hold
	bookings map[uuid.UUID]*domain.Booking
	byHold   map[uuid.UUID]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		maps:     make(map[int]*domain.SeatMap),
		holds:    make(map[uuid.UUID]*domain.Hold),
		bookings: make(map[uuid.UUID]*domain.Booking),
		byHold:   make(map[uuid.UUID]uuid.UUID),
	}
}

// AddShow seeds an all-free seat map for show.
func (s *MemoryStore) AddShow(show *domain.Show) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maps[show.ID] = domain.NewSeatMap(show)
}

// PutHold stores a hold and marks its seats held, bypassing the version
// check. Used to seed state left behind by an earlier process.
func (s *MemoryStore) PutHold(hold *domain.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.maps[hold.ShowID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	for _, id := range hold.SeatIDs {
		if _, ok := m.Seats[id]; !ok {
			return fmt.Errorf("seat %s not in show %d", id, hold.ShowID)
		}
		m.Seats[id] = domain.HeldSeat(id, hold)
	}

	s.holds[hold.ID] = hold.Clone()
	m.Version++

	return nil
}

func (s *MemoryStore) GetSeatMap(ctx context.Context, showID int) (*domain.SeatMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[showID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return m.Clone(), nil
}

func (s *MemoryStore) GetHold(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holds[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return h.Clone(), nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return b.Clone(), nil
}

func (s *MemoryStore) GetBookingByHold(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHold[holdID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return s.bookings[id].Clone(), nil
}

func (s *MemoryStore) Apply(ctx context.Context, change domain.LedgerChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.maps[change.ShowID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	if m.Version != change.ExpectedVersion {
		return domain.ErrEditConflict
	}

	for _, seat := range change.Seats {
		if _, ok := m.Seats[seat.SeatID]; !ok {
			return fmt.Errorf("seat %s not in show %d", seat.SeatID, change.ShowID)
		}
	}

	for _, seat := range change.Seats {
		m.Seats[seat.SeatID] = seat
	}

	for _, h := range change.Holds {
		s.holds[h.ID] = h.Clone()
	}

	if change.Booking != nil {
		s.bookings[change.Booking.ID] = change.Booking.Clone()
		s.byHold[change.Booking.HoldID] = change.Booking.ID
	}

	m.Version++

	return nil
}

func (s *MemoryStore) ListActiveHolds(ctx context.Context) ([]*domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holds := make([]*domain.Hold, 0)
	for _, h := range s.holds {
		if h.IsActive() {
			holds = append(holds, h.Clone())
		}
	}

	sortByDeadline(holds)

	return holds, nil
}

func (s *MemoryStore) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holds := make([]*domain.Hold, 0)
	for _, h := range s.holds {
		if h.IsActive() && h.ExpiredAt(now) {
			holds = append(holds, h.Clone())
		}
	}

	sortByDeadline(holds)

	if limit > 0 && len(holds) > limit {
		holds = holds[:limit]
	}

	return holds, nil
}

func sortByDeadline(holds []*domain.Hold) {
	sort.Slice(holds, func(i, j int) bool {
		return holds[i].ExpiresAt.Before(holds[j].ExpiresAt)
	})
}
