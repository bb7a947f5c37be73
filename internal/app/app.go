package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/metinatakli/seat-reservation/internal/cache"
	"github.com/metinatakli/seat-reservation/internal/catalog"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/metinatakli/seat-reservation/internal/expiry"
	"github.com/metinatakli/seat-reservation/internal/ledger"
	"github.com/metinatakli/seat-reservation/internal/mailer"
	"github.com/metinatakli/seat-reservation/internal/payment"
	"github.com/metinatakli/seat-reservation/internal/queue"
	"github.com/metinatakli/seat-reservation/internal/repository"
	"github.com/metinatakli/seat-reservation/internal/reservation"
	"github.com/metinatakli/seat-reservation/internal/shows"
	appvalidator "github.com/metinatakli/seat-reservation/internal/validator"
	"github.com/metinatakli/seat-reservation/internal/vcs"
	"github.com/metinatakli/seat-reservation/migrations"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/sync/errgroup"
)

const serviceName = "seat-reservation-api"

var (
	version = vcs.Version()
)

// WebhookParser verifies a payment provider notification and projects it
// onto a PaymentEvent. A nil event means the notification carries no
// outcome.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error)
}

// PaymentEventSink accepts verified payment outcomes for finalization.
type PaymentEventSink interface {
	PublishPaymentEvent(ctx context.Context, event domain.PaymentEvent) error
}

type Application struct {
	config         Config
	logger         *slog.Logger
	validator      *validator.Validate
	sessionManager *scs.SessionManager
	mailer         mailer.Mailer

	reservations *reservation.Service
	registry     *shows.Registry
	scheduler    *expiry.Scheduler
	movieRepo    domain.MovieRepository
	showRepo     domain.ShowRepository

	webhooks      WebhookParser
	paymentEvents PaymentEventSink
}

type Dependencies struct {
	Logger         *slog.Logger
	Validator      *validator.Validate
	SessionManager *scs.SessionManager
	Mailer         mailer.Mailer
	Reservations   *reservation.Service
	Registry       *shows.Registry
	Scheduler      *expiry.Scheduler
	Movies         domain.MovieRepository
	Shows          domain.ShowRepository
	Webhooks       WebhookParser
	// PaymentEvents defaults to finalizing each event inline. An
	// *InlineEvents given here is bound to the new application.
	PaymentEvents PaymentEventSink
}

func NewApp(cfg Config, deps Dependencies) *Application {
	app := &Application{
		config:         cfg,
		logger:         deps.Logger,
		validator:      deps.Validator,
		sessionManager: deps.SessionManager,
		mailer:         deps.Mailer,
		reservations:   deps.Reservations,
		registry:       deps.Registry,
		scheduler:      deps.Scheduler,
		movieRepo:      deps.Movies,
		showRepo:       deps.Shows,
		webhooks:       deps.Webhooks,
		paymentEvents:  deps.PaymentEvents,
	}

	switch events := app.paymentEvents.(type) {
	case nil:
		app.paymentEvents = &InlineEvents{app: app}
	case *InlineEvents:
		events.app = app
	}

	return app
}

func Run() error {
	cfg, displayVersion, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(os.Stdout, nil),
		otelslog.NewHandler(serviceName),
	))

	shutdownTelemetry, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.MigrateOnStart {
		err = RunMigrations(cfg.DB.DSN)
		if err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	showRepo := repository.NewPostgresShowRepository(db)
	movieRepo := repository.NewPostgresMovieRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)

	seatLedger := ledger.New(repository.NewPostgresLedgerStore(db),
		ledger.WithMaxAttempts(cfg.Reservation.LedgerAttempts))

	var paymentProvider interface {
		domain.PaymentProvider
		WebhookParser
	}

	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
		paymentProvider = payment.NewStripePaymentProvider(cfg.Stripe.FailureUrl, cfg.Stripe.SuccessUrl, cfg.Stripe.WebhookSecret)
	} else {
		logger.Warn("stripe key not set, using mock payment provider")
		paymentProvider = payment.NewMockPaymentProvider(cfg.Stripe.SuccessUrl)
	}

	var publisher *queue.Publisher
	var events interface {
		reservation.EventPublisher
		PaymentEventSink
	}

	if cfg.AMQP.URL != "" {
		publisher = queue.NewPublisher(cfg.AMQP.URL, logger)
		defer publisher.Close()
		events = publisher
	} else {
		logger.Warn("amqp url not set, payment outcomes are applied inline")
		events = &InlineEvents{}
	}

	seatMapCache := cache.NewRedisSeatMapCache(redisClient, cache.DefaultSeatMapTTL)

	notifier, err := reservation.NewNotifier(events, seatMapCache, logger)
	if err != nil {
		return err
	}

	scheduler := expiry.New(seatLedger, logger,
		expiry.WithInterval(cfg.Reservation.SweepInterval),
		expiry.WithExpiredHook(notifier.HoldExpired),
	)

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

	tmdb, err := catalog.NewTMDBClient(cfg.TMDB.Token, logger,
		catalog.WithBaseURL(cfg.TMDB.BaseURL),
		catalog.WithRetry(cfg.TMDB.RetryAttempts, cfg.TMDB.RetryDelay),
	)
	if err != nil {
		return err
	}

	app := NewApp(cfg, Dependencies{
		Logger:         logger,
		Validator:      appvalidator.NewValidator(),
		SessionManager: NewSessionManager(redisClient),
		Mailer:         mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		Reservations:   reservations,
		Registry:       shows.NewRegistry(showRepo, movieRepo, tmdb, logger),
		Scheduler:      scheduler,
		Movies:         movieRepo,
		Shows:          showRepo,
		Webhooks:       paymentProvider,
		PaymentEvents:  events,
	})

	return app.serve()
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.IdleTimeout = 2 * time.Hour
	sessionManager.Cookie.Name = "session_id"
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// RunMigrations applies every pending migration embedded in the binary.
func RunMigrations(dsn string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("pgx migration driver error: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source error: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return fmt.Errorf("migrate.New error: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// serve runs the HTTP server next to the expiry scheduler and, when a
// broker is configured, the queue consumers. The first to fail or a
// termination signal stops them all.
func (app *Application) serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	released, err := app.scheduler.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover holds: %w", err)
	}

	if released > 0 {
		app.logger.Info("released holds that expired while the service was down", "count", released)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.scheduler.Run(ctx)
	})

	if app.config.AMQP.URL != "" {
		consumer := queue.NewConsumer(app.config.AMQP.URL, app.logger)

		g.Go(func() error {
			return consumer.Consume(ctx, queue.PaymentEventsQueue, queue.JSONHandler(app.applyPaymentEvent))
		})

		g.Go(func() error {
			return consumer.Consume(ctx, queue.BookingConfirmedQueue, queue.JSONHandler(app.sendBookingConfirmation))
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "version", version)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		app.logger.Info("stopped server", "addr", srv.Addr)

		return nil
	})

	err = g.Wait()

	if inline, ok := app.paymentEvents.(*InlineEvents); ok {
		inline.Wait()
	}

	return err
}
