package shows

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var testNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

type RegistryTestSuite struct {
	suite.Suite
	ctx       context.Context
	showRepo  *mocks.MockShowRepo
	movieRepo *mocks.MockMovieRepo
	catalog   *mocks.MockMovieCatalog
	registry  *Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.showRepo = new(mocks.MockShowRepo)
	s.movieRepo = new(mocks.MockMovieRepo)
	s.catalog = new(mocks.MockMovieCatalog)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.registry = NewRegistry(s.showRepo, s.movieRepo, s.catalog, logger,
		WithClock(func() time.Time { return testNow }))
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func validInput() CreateShowsInput {
	return CreateShowsInput{
		MovieID:     550,
		Slots:       []Slot{{Date: "2030-01-02", Times: []string{"18:00", "21:30"}}},
		Price:       decimal.RequireFromString("12.50"),
		Rows:        2,
		SeatsPerRow: 3,
	}
}

func (s *RegistryTestSuite) TestCreateShows_StoredMovie() {
	movie := &domain.Movie{ID: 550, Title: "Fight Club"}
	s.movieRepo.On("GetById", s.ctx, 550).Return(movie, nil)
	s.showRepo.On("Create", s.ctx, mock.AnythingOfType("*domain.Show")).Return(nil)

	shows, err := s.registry.CreateShows(s.ctx, validInput())

	s.Require().NoError(err)
	s.Require().Len(shows, 2)
	s.Equal(time.Date(2030, 1, 2, 18, 0, 0, 0, time.UTC), shows[0].StartsAt)
	s.Equal(time.Date(2030, 1, 2, 21, 30, 0, 0, time.UTC), shows[1].StartsAt)
	s.Equal([]string{"A1", "A2", "A3", "B1", "B2", "B3"}, shows[0].Layout)
	s.Equal(domain.ShowStatusScheduled, shows[1].Status)
	s.catalog.AssertNotCalled(s.T(), "Movie", mock.Anything, mock.Anything)
	s.showRepo.AssertNumberOfCalls(s.T(), "Create", 2)
}

func (s *RegistryTestSuite) TestCreateShows_FetchesUnknownMovie() {
	movie := &domain.Movie{ID: 550, Title: "Fight Club"}
	s.movieRepo.On("GetById", s.ctx, 550).Return(nil, domain.ErrRecordNotFound)
	s.catalog.On("Movie", s.ctx, 550).Return(movie, nil)
	s.movieRepo.On("Create", s.ctx, movie).Return(nil)
	s.showRepo.On("Create", s.ctx, mock.AnythingOfType("*domain.Show")).Return(nil)

	shows, err := s.registry.CreateShows(s.ctx, validInput())

	s.Require().NoError(err)
	s.Len(shows, 2)
	s.movieRepo.AssertExpectations(s.T())
}

func (s *RegistryTestSuite) TestCreateShows_CatalogUnavailable() {
	s.movieRepo.On("GetById", s.ctx, 550).Return(nil, domain.ErrRecordNotFound)
	s.catalog.On("Movie", s.ctx, 550).Return(nil, domain.ErrTransientDependency)

	_, err := s.registry.CreateShows(s.ctx, validInput())

	s.ErrorIs(err, domain.ErrTransientDependency)
	s.showRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *RegistryTestSuite) TestCreateShows_Validation() {
	tests := []struct {
		name   string
		mutate func(*CreateShowsInput)
	}{
		{"zero price", func(in *CreateShowsInput) { in.Price = decimal.Zero }},
		{"no slots", func(in *CreateShowsInput) { in.Slots = nil }},
		{"slot without times", func(in *CreateShowsInput) { in.Slots[0].Times = nil }},
		{"malformed time", func(in *CreateShowsInput) { in.Slots[0].Times = []string{"25:99"} }},
		{"past start", func(in *CreateShowsInput) { in.Slots[0].Date = "2029-12-31" }},
		{"empty layout", func(in *CreateShowsInput) { in.Rows = 0 }},
		{"duplicate seat in custom layout", func(in *CreateShowsInput) { in.Layout = []string{"A1", "A1"} }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			input := validInput()
			tt.mutate(&input)

			_, err := s.registry.CreateShows(s.ctx, input)

			s.ErrorIs(err, domain.ErrValidation)
		})
	}

	s.movieRepo.AssertNotCalled(s.T(), "GetById", mock.Anything, mock.Anything)
	s.showRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *RegistryTestSuite) TestCreateShows_CustomLayout() {
	movie := &domain.Movie{ID: 550}
	s.movieRepo.On("GetById", s.ctx, 550).Return(movie, nil)
	s.showRepo.On("Create", s.ctx, mock.AnythingOfType("*domain.Show")).Return(nil)

	input := validInput()
	input.Slots[0].Times = []string{"18:00"}
	input.Layout = []string{"VIP1", "VIP2"}

	shows, err := s.registry.CreateShows(s.ctx, input)

	s.Require().NoError(err)
	s.Equal([]string{"VIP1", "VIP2"}, shows[0].Layout)
}

func (s *RegistryTestSuite) TestUpcomingMovies() {
	movies := []*domain.Movie{{ID: 1}, {ID: 2}}
	s.showRepo.On("GetUpcomingMovieIds", s.ctx, testNow).Return([]int{1, 2}, nil)
	s.movieRepo.On("GetByIds", s.ctx, []int{1, 2}).Return(movies, nil)

	got, err := s.registry.UpcomingMovies(s.ctx)

	s.Require().NoError(err)
	s.Equal(movies, got)
}

func (s *RegistryTestSuite) TestUpcomingMovies_None() {
	s.showRepo.On("GetUpcomingMovieIds", s.ctx, testNow).Return([]int{}, nil)

	got, err := s.registry.UpcomingMovies(s.ctx)

	s.Require().NoError(err)
	s.Empty(got)
	s.movieRepo.AssertNotCalled(s.T(), "GetByIds", mock.Anything, mock.Anything)
}

func (s *RegistryTestSuite) TestShowtimes_GroupsByDate() {
	price := decimal.RequireFromString("10")
	showtimes := []domain.Showtime{
		{ShowID: 1, StartsAt: time.Date(2030, 1, 2, 18, 0, 0, 0, time.UTC), Price: price},
		{ShowID: 2, StartsAt: time.Date(2030, 1, 2, 21, 0, 0, 0, time.UTC), Price: price},
		{ShowID: 3, StartsAt: time.Date(2030, 1, 3, 18, 0, 0, 0, time.UTC), Price: price},
	}
	movie := &domain.Movie{ID: 7}
	s.movieRepo.On("GetById", s.ctx, 7).Return(movie, nil)
	s.showRepo.On("GetShowtimesByMovie", s.ctx, 7, testNow).Return(showtimes, nil)

	got, err := s.registry.Showtimes(s.ctx, 7)

	s.Require().NoError(err)
	s.Equal(movie, got.Movie)
	s.Equal([]ShowDate{
		{Date: "2030-01-02", Showtimes: showtimes[:2]},
		{Date: "2030-01-03", Showtimes: showtimes[2:]},
	}, got.Dates)
}

func (s *RegistryTestSuite) TestShowtimes_UnknownMovie() {
	s.movieRepo.On("GetById", s.ctx, 7).Return(nil, domain.ErrRecordNotFound)

	_, err := s.registry.Showtimes(s.ctx, 7)

	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *RegistryTestSuite) TestInvalidate() {
	s.showRepo.On("Invalidate", s.ctx, 3).Return(nil)
	s.showRepo.On("Invalidate", s.ctx, 4).Return(domain.ErrRecordNotFound)

	s.NoError(s.registry.Invalidate(s.ctx, 3))
	s.ErrorIs(s.registry.Invalidate(s.ctx, 4), domain.ErrRecordNotFound)
}

func (s *RegistryTestSuite) TestNowPlaying() {
	s.catalog.On("NowPlaying", s.ctx).Return(nil, errors.New("boom"))

	_, err := s.registry.NowPlaying(s.ctx)

	s.Error(err)
}
