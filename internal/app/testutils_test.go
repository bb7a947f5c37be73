package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/metinatakli/seat-reservation/api"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/expiry"
	"github.com/metinatakli/seat-reservation/internal/ledger"
	"github.com/metinatakli/seat-reservation/internal/mailer"
	"github.com/metinatakli/seat-reservation/internal/mocks"
	"github.com/metinatakli/seat-reservation/internal/payment"
	"github.com/metinatakli/seat-reservation/internal/reservation"
	"github.com/metinatakli/seat-reservation/internal/shows"
	"github.com/metinatakli/seat-reservation/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testAdminToken = "admin-secret"

// appSuite wires the real reservation stack over an in-memory ledger and
// drives it through the router, so middleware runs on every request.
type appSuite struct {
	suite.Suite

	app         *Application
	handler     http.Handler
	store       *ledger.MemoryStore
	scheduler   *expiry.Scheduler
	events      *InlineEvents
	mailer      *mailer.MockMailer
	showRepo    *mocks.MockShowRepo
	movieRepo   *mocks.MockMovieRepo
	bookingRepo *mocks.MockBookingRepo
	catalog     *mocks.MockMovieCatalog

	show  *domain.Show
	movie *domain.Movie
}

func (s *appSuite) SetupTest() {
	s.show = &domain.Show{
		ID:       1,
		MovieID:  550,
		StartsAt: time.Now().Add(48 * time.Hour).Truncate(time.Minute),
		Price:    decimal.NewFromInt(12),
		Layout:   []string{"A1", "A2", "B1"},
		Status:   domain.ShowStatusScheduled,
	}
	s.movie = &domain.Movie{ID: 550, Title: "Fight Club"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = ledger.NewMemoryStore()
	s.store.AddShow(s.show)
	seatLedger := ledger.New(s.store)

	s.showRepo = new(mocks.MockShowRepo)
	s.showRepo.On("GetById", mock.Anything, s.show.ID).Return(s.show, nil).Maybe()
	s.showRepo.On("GetById", mock.Anything, mock.Anything).Return(nil, domain.ErrRecordNotFound).Maybe()

	s.movieRepo = new(mocks.MockMovieRepo)
	s.movieRepo.On("GetById", mock.Anything, s.movie.ID).Return(s.movie, nil).Maybe()

	s.bookingRepo = new(mocks.MockBookingRepo)
	s.catalog = new(mocks.MockMovieCatalog)
	s.mailer = mailer.NewMockMailer()
	s.events = &InlineEvents{}

	notifier, err := reservation.NewNotifier(s.events, nil, logger)
	s.Require().NoError(err)

	s.scheduler = expiry.New(seatLedger, logger, expiry.WithExpiredHook(notifier.HoldExpired))

	payments := payment.NewMockPaymentProvider("http://localhost/success")

	reservations := reservation.NewService(reservation.Config{
		Ledger:    seatLedger,
		Shows:     s.showRepo,
		Movies:    s.movieRepo,
		Bookings:  s.bookingRepo,
		Payments:  payments,
		Scheduler: s.scheduler,
		Notifier:  notifier,
		Logger:    logger,
	})

	s.app = NewApp(Config{Env: "test", AdminToken: testAdminToken}, Dependencies{
		Logger:         logger,
		Validator:      validator.NewValidator(),
		SessionManager: scs.New(),
		Mailer:         s.mailer,
		Reservations:   reservations,
		Registry:       shows.NewRegistry(s.showRepo, s.movieRepo, s.catalog, logger),
		Scheduler:      s.scheduler,
		Movies:         s.movieRepo,
		Shows:          s.showRepo,
		Webhooks:       payments,
		PaymentEvents:  s.events,
	})

	s.handler = s.app.Routes()
}

func (s *appSuite) TearDownTest() {
	s.events.Wait()

	holds, err := s.store.ListActiveHolds(context.Background())
	s.Require().NoError(err)

	for _, hold := range holds {
		s.scheduler.Cancel(hold.ID)
	}
}

type requestOption func(*http.Request)

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func asAdmin(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func (s *appSuite) do(method, url string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody

	if body != nil {
		js, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(js)
	}

	r := httptest.NewRequest(method, url, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	for _, opt := range opts {
		opt(r)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	return w
}

// holdSeats places a hold as a fresh buyer and returns the hold and the
// buyer's session cookies.
func (s *appSuite) holdSeats(seatIDs ...string) (api.HoldResponse, []*http.Cookie) {
	w := s.do(http.MethodPost, "/shows/1/holds", api.CreateHoldRequest{SeatIds: seatIDs})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var hold api.HoldResponse
	s.decode(w, &hold)

	return hold, w.Result().Cookies()
}

func (s *appSuite) decode(w *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.NewDecoder(w.Body).Decode(dst), w.Body.String())
}

func ptr[T any](v T) *T {
	return &v
}
