package shows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Slot is one calendar date with the start times scheduled on it.
type Slot struct {
	Date  string
	Times []string
}

type CreateShowsInput struct {
	MovieID     int
	Slots       []Slot
	Price       decimal.Decimal
	Rows        int
	SeatsPerRow int
	// Layout overrides Rows and SeatsPerRow when set.
	Layout []string
}

type ShowDate struct {
	Date      string
	Showtimes []domain.Showtime
}

type MovieShowtimes struct {
	Movie *domain.Movie
	Dates []ShowDate
}

// Registry owns show definitions. Shows are immutable once created apart
// from being invalidated.
type Registry struct {
	shows    domain.ShowRepository
	movies   domain.MovieRepository
	catalog  domain.MovieCatalog
	logger   *slog.Logger
	now      func() time.Time
	location *time.Location
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLocation sets the zone slot dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		if loc != nil {
			r.location = loc
		}
	}
}

func NewRegistry(
	shows domain.ShowRepository,
	movies domain.MovieRepository,
	catalog domain.MovieCatalog,
	logger *slog.Logger,
	opts ...Option) *Registry {

	r := &Registry{
		shows:    shows,
		movies:   movies,
		catalog:  catalog,
		logger:   logger.With("component", "shows"),
		now:      time.Now,
		location: time.UTC,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// CreateShows schedules one show per slot time, all sharing price and
// layout. The movie is fetched from the catalog the first time it is
// scheduled. Nothing is created if any start time is invalid.
func (r *Registry) CreateShows(ctx context.Context, input CreateShowsInput) ([]*domain.Show, error) {
	if !input.Price.IsPositive() {
		return nil, domain.NewValidationError("price", "must be greater than zero")
	}

	layout, err := r.layout(input)
	if err != nil {
		return nil, err
	}

	startTimes, err := r.startTimes(input.Slots)
	if err != nil {
		return nil, err
	}

	movie, err := r.ensureMovie(ctx, input.MovieID)
	if err != nil {
		return nil, err
	}

	shows := make([]*domain.Show, 0, len(startTimes))

	for _, startsAt := range startTimes {
		show := &domain.Show{
			MovieID:  movie.ID,
			StartsAt: startsAt,
			Price:    input.Price,
			Layout:   append([]string(nil), layout...),
			Status:   domain.ShowStatusScheduled,
		}

		err = r.shows.Create(ctx, show)
		if err != nil {
			return shows, fmt.Errorf("create show at %s: %w", startsAt.Format(time.RFC3339), err)
		}

		shows = append(shows, show)
	}

	r.logger.Info("shows created", "movie_id", movie.ID, "title", movie.Title, "count", len(shows))

	return shows, nil
}

func (r *Registry) layout(input CreateShowsInput) ([]string, error) {
	if len(input.Layout) == 0 {
		return domain.GenerateLayout(input.Rows, input.SeatsPerRow)
	}

	seen := make(map[string]struct{}, len(input.Layout))
	for _, id := range input.Layout {
		if id == "" {
			return nil, domain.NewValidationError("layout", "seat ids must not be empty")
		}
		if _, ok := seen[id]; ok {
			return nil, domain.NewValidationError("layout", fmt.Sprintf("duplicate seat id %s", id))
		}
		seen[id] = struct{}{}
	}

	return input.Layout, nil
}

func (r *Registry) startTimes(slots []Slot) ([]time.Time, error) {
	if len(slots) == 0 {
		return nil, domain.NewValidationError("shows", "at least one date is required")
	}

	now := r.now()
	var startTimes []time.Time

	for _, slot := range slots {
		if len(slot.Times) == 0 {
			return nil, domain.NewValidationError("shows", fmt.Sprintf("no times given for %s", slot.Date))
		}

		for _, clock := range slot.Times {
			startsAt, err := time.ParseInLocation(dateLayout+" "+timeLayout, slot.Date+" "+clock, r.location)
			if err != nil {
				return nil, domain.NewValidationError("shows", fmt.Sprintf("invalid date or time %s %s", slot.Date, clock))
			}

			if !startsAt.After(now) {
				return nil, domain.NewValidationError("shows", fmt.Sprintf("%s %s is in the past", slot.Date, clock))
			}

			startTimes = append(startTimes, startsAt)
		}
	}

	return startTimes, nil
}

func (r *Registry) ensureMovie(ctx context.Context, movieID int) (*domain.Movie, error) {
	if movieID <= 0 {
		return nil, domain.NewValidationError("movieId", "must be a positive integer")
	}

	movie, err := r.movies.GetById(ctx, movieID)
	if err == nil {
		return movie, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	r.logger.Info("movie not stored, fetching from catalog", "movie_id", movieID)

	movie, err = r.catalog.Movie(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("fetch movie %d from catalog: %w", movieID, err)
	}

	err = r.movies.Create(ctx, movie)
	if err != nil {
		return nil, err
	}

	return movie, nil
}

func (r *Registry) Get(ctx context.Context, showID int) (*domain.Show, error) {
	return r.shows.GetById(ctx, showID)
}

// UpcomingMovies lists every movie with at least one bookable show.
func (r *Registry) UpcomingMovies(ctx context.Context) ([]*domain.Movie, error) {
	ids, err := r.shows.GetUpcomingMovieIds(ctx, r.now())
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*domain.Movie{}, nil
	}

	return r.movies.GetByIds(ctx, ids)
}

// Showtimes returns the movie's upcoming shows grouped by calendar date.
func (r *Registry) Showtimes(ctx context.Context, movieID int) (*MovieShowtimes, error) {
	movie, err := r.movies.GetById(ctx, movieID)
	if err != nil {
		return nil, err
	}

	showtimes, err := r.shows.GetShowtimesByMovie(ctx, movieID, r.now())
	if err != nil {
		return nil, err
	}

	result := &MovieShowtimes{Movie: movie, Dates: []ShowDate{}}

	for _, st := range showtimes {
		date := st.StartsAt.In(r.location).Format(dateLayout)

		last := len(result.Dates) - 1
		if last < 0 || result.Dates[last].Date != date {
			result.Dates = append(result.Dates, ShowDate{Date: date})
			last++
		}

		result.Dates[last].Showtimes = append(result.Dates[last].Showtimes, st)
	}

	return result, nil
}

// Invalidate stops a show from taking new holds. Existing holds and
// bookings are left to run their course.
func (r *Registry) Invalidate(ctx context.Context, showID int) error {
	err := r.shows.Invalidate(ctx, showID)
	if err != nil {
		return err
	}

	r.logger.Info("show invalidated", "show_id", showID)

	return nil
}

func (r *Registry) NowPlaying(ctx context.Context) ([]*domain.Movie, error) {
	return r.catalog.NowPlaying(ctx)
}
