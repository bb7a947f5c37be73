package integration_test

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/app"
	"github.com/metinatakli/seat-reservation/internal/cache"
	"github.com/metinatakli/seat-reservation/internal/catalog"
	"github.com/metinatakli/seat-reservation/internal/expiry"
	"github.com/metinatakli/seat-reservation/internal/ledger"
	"github.com/metinatakli/seat-reservation/internal/mailer"
	"github.com/metinatakli/seat-reservation/internal/payment"
	"github.com/metinatakli/seat-reservation/internal/repository"
	"github.com/metinatakli/seat-reservation/internal/reservation"
	"github.com/metinatakli/seat-reservation/internal/shows"
	appvalidator "github.com/metinatakli/seat-reservation/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App       *app.Application
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Mailer    *mailer.MockMailer
	Events    *app.InlineEvents
	Scheduler *expiry.Scheduler
	Movies    *repository.PostgresMovieRepository
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	mockMailer := mailer.NewMockMailer()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	showRepo := repository.NewPostgresShowRepository(db)
	movieRepo := repository.NewPostgresMovieRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)

	seatLedger := ledger.New(repository.NewPostgresLedgerStore(db))
	seatMapCache := cache.NewRedisSeatMapCache(redisClient, cache.DefaultSeatMapTTL)
	events := &app.InlineEvents{}

	notifier, err := reservation.NewNotifier(events, seatMapCache, logger)
	if err != nil {
		return nil, err
	}

	scheduler := expiry.New(seatLedger, logger,
		expiry.WithInterval(cfg.Reservation.SweepInterval),
		expiry.WithExpiredHook(notifier.HoldExpired),
	)

	paymentProvider := payment.NewMockPaymentProvider("http://localhost/success")

	reservations := reservation.NewService(reservation.Config{
		Ledger:    seatLedger,
		Shows:     showRepo,
		Movies:    movieRepo,
		Bookings:  bookingRepo,
		Payments:  paymentProvider,
		Scheduler: scheduler,
		Cache:     seatMapCache,
		Notifier:  notifier,
		Refunds:   cache.NewRedisRefundLog(redisClient, cache.DefaultRefundTTL),
		Logger:    logger,
		HoldTTL:   cfg.Reservation.HoldTTL,
	})

	// Movies are seeded directly, the catalog is never reached.
	tmdb, err := catalog.NewTMDBClient("test-token", logger, catalog.WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		return nil, err
	}

	application := app.NewApp(cfg, app.Dependencies{
		Logger:         logger,
		Validator:      appvalidator.NewValidator(),
		SessionManager: app.NewSessionManager(redisClient),
		Mailer:         mockMailer,
		Reservations:   reservations,
		Registry:       shows.NewRegistry(showRepo, movieRepo, tmdb, logger),
		Scheduler:      scheduler,
		Movies:         movieRepo,
		Shows:          showRepo,
		Webhooks:       paymentProvider,
		PaymentEvents:  events,
	})

	return &TestApp{
		App:       application,
		DB:        db,
		Redis:     redisClient,
		Mailer:    mockMailer,
		Events:    events,
		Scheduler: scheduler,
		Movies:    movieRepo,
	}, nil
}
