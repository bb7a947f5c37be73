package expiry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

const (
	DefaultInterval    = 30 * time.Second
	defaultBatchSize   = 100
	defaultMaxAttempts = 5
)

// Ledger is the part of the seat ledger the scheduler drives.
type Ledger interface {
	Expire(ctx context.Context, holdID uuid.UUID) (*domain.Hold, error)
	ActiveHolds(ctx context.Context) ([]*domain.Hold, error)
	ExpiredHolds(ctx context.Context, limit int) ([]*domain.Hold, error)
	Now() time.Time
}

// ExpiredHook is called once for every hold the scheduler released.
type ExpiredHook func(ctx context.Context, hold *domain.Hold)

// Scheduler releases holds that reach their deadline. Each hold gets a
// precise timer; a periodic sweep over the durable deadlines catches
// anything a timer missed, including holds left behind by a crash.
type Scheduler struct {
	ledger      Ledger
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts uint
	onExpired   ExpiredHook

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	timers  map[uuid.UUID]*timer
	stopped bool
}

type timer struct {
	t *time.Timer
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithExpiredHook(hook ExpiredHook) Option {
	return func(s *Scheduler) {
		s.onExpired = hook
	}
}

func WithBatchSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithMaxAttempts(n uint) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func New(ledger Ledger, logger *slog.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		ledger:      ledger,
		logger:      logger.With("component", "expiry"),
		interval:    DefaultInterval,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		ctx:         ctx,
		cancel:      cancel,
		timers:      make(map[uuid.UUID]*timer),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Schedule arms a timer that expires the hold at its deadline, replacing
// any timer already armed for it.
func (s *Scheduler) Schedule(hold *domain.Hold) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.timers[hold.ID]; ok {
		existing.t.Stop()
	}

	delay := hold.ExpiresAt.Sub(s.ledger.Now())
	if delay < 0 {
		delay = 0
	}

	holdID := hold.ID

	entry := &timer{}
	entry.t = time.AfterFunc(delay, func() {
		s.fire(holdID, entry)
	})
	s.timers[holdID] = entry
}

// Cancel disarms the hold's timer. It is advisory: a timer that already
// fired still goes through the ledger, which ignores holds that are no
// longer held.
func (s *Scheduler) Cancel(holdID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.timers[holdID]; ok {
		entry.t.Stop()
		delete(s.timers, holdID)
	}
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}

func (s *Scheduler) fire(holdID uuid.UUID, entry *timer) {
	s.mu.Lock()
	current, ok := s.timers[holdID]
	if !ok || current != entry || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, holdID)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	s.expire(s.ctx, holdID)
}

// Recover releases every durable hold whose deadline already passed and
// re-arms timers for the rest. It is meant to run once at startup.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	holds, err := s.ledger.ActiveHolds(ctx)
	if err != nil {
		return 0, err
	}

	now := s.ledger.Now()
	released := 0
	armed := 0

	for _, hold := range holds {
		if hold.ExpiredAt(now) {
			if s.expire(ctx, hold.ID) {
				released++
			}
			continue
		}

		s.Schedule(hold)
		armed++
	}

	s.logger.Info("recovered holds", "released", released, "armed", armed)

	return released, nil
}

// Sweep releases every hold whose deadline passed, in batches.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	released := 0

	for {
		holds, err := s.ledger.ExpiredHolds(ctx, s.batchSize)
		if err != nil {
			return released, err
		}

		progress := 0
		for _, hold := range holds {
			if s.expire(ctx, hold.ID) {
				progress++
			}
		}
		released += progress

		if len(holds) < s.batchSize || progress == 0 {
			break
		}
	}

	if released > 0 {
		s.logger.Info("swept expired holds", "released", released)
	}

	return released, nil
}

// Run sweeps every interval until ctx is done, then stops all timers.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting expiry scheduler", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			s.logger.Info("stopped expiry scheduler")
			return nil
		case <-ticker.C:
			_, err := s.Sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("failed to sweep expired holds", "error", err)
			}
		}
	}
}

// Stop disarms every timer and waits for in-flight expirations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, entry := range s.timers {
		entry.t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// expire releases one hold, retrying transient failures. Until it succeeds
// the seats stay held and a later sweep tries again.
func (s *Scheduler) expire(ctx context.Context, holdID uuid.UUID) bool {
	op := func() (*domain.Hold, error) {
		hold, err := s.ledger.Expire(ctx, holdID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) || errors.Is(err, context.Canceled) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return hold, nil
	}

	hold, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.maxAttempts),
	)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			s.logger.Error("failed to expire hold", "hold_id", holdID, "error", err)
		}
		return false
	}

	if hold == nil {
		return false
	}

	s.Cancel(hold.ID)

	s.logger.Info("hold expired", "hold_id", hold.ID, "show_id", hold.ShowID, "seats", hold.SeatIDs)

	if s.onExpired != nil {
		s.onExpired(ctx, hold)
	}

	return true
}
