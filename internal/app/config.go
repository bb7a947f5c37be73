package app

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/metinatakli/seat-reservation/internal/catalog"
	"github.com/metinatakli/seat-reservation/internal/expiry"
	"github.com/metinatakli/seat-reservation/internal/reservation"
)

type Config struct {
	Port             int
	Env              string
	DB               DBConfig
	Redis            RedisConfig
	AMQP             AMQPConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	TMDB             TMDBConfig
	Reservation      ReservationConfig
	AdminToken       string
	OtelCollectorUrl string
	MigrateOnStart   bool
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

// AMQPConfig leaves URL empty to apply payment outcomes inline instead of
// through the broker.
type AMQPConfig struct {
	URL string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// StripeConfig leaves SecretKey empty to use the mock payment provider.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessUrl    string
	FailureUrl    string
}

type TMDBConfig struct {
	Token         string
	BaseURL       string
	RetryAttempts uint
	RetryDelay    time.Duration
}

type ReservationConfig struct {
	HoldTTL        time.Duration
	SweepInterval  time.Duration
	LedgerAttempts uint
}

// LoadConfig parses args into a Config. Every flag defaults to its
// environment variable, and variables from a .env file in the working
// directory fill in whatever the environment leaves unset.
func LoadConfig(args []string) (Config, bool, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, false, err
	}

	var cfg Config

	fset := flag.NewFlagSet("api", flag.ContinueOnError)

	fset.IntVar(&cfg.Port, "port", envInt("PORT", 3000), "server port")
	fset.StringVar(&cfg.Env, "env", envString("APP_ENV", "dev"), "Environment (dev|staging|prod)")

	fset.StringVar(&cfg.DB.DSN, "db-dsn", envString("DB_DSN", ""), "PostgreSQL DSN")
	fset.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envInt("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fset.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDuration("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")
	fset.BoolVar(&cfg.MigrateOnStart, "db-migrate", envBool("DB_MIGRATE", false), "Apply pending schema migrations on start")

	fset.StringVar(&cfg.Redis.URL, "redis-url", envString("REDIS_URL", ""), "Redis URL")
	fset.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envInt("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fset.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envInt("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fset.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDuration("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fset.StringVar(&cfg.AMQP.URL, "amqp-url", envString("AMQP_URL", ""), "RabbitMQ URL, empty to finalize payments inline")

	fset.StringVar(&cfg.SMTP.Host, "smtp-host", envString("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	fset.IntVar(&cfg.SMTP.Port, "smtp-port", envInt("SMTP_PORT", 2525), "SMTP port")
	fset.StringVar(&cfg.SMTP.Username, "smtp-username", envString("SMTP_USERNAME", ""), "SMTP username")
	fset.StringVar(&cfg.SMTP.Password, "smtp-password", envString("SMTP_PASSWORD", ""), "SMTP password")
	fset.StringVar(&cfg.SMTP.Sender, "smtp-sender", envString("SMTP_SENDER", "CineX <no-reply@cinex.metinatakli.net>"), "SMTP sender")

	fset.StringVar(&cfg.Stripe.SecretKey, "stripe-key", envString("STRIPE_SECRET_KEY", ""), "Stripe secret key")
	fset.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envString("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")
	fset.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", envString("STRIPE_SUCCESS_URL", "https://example.com/success.html"), "Stripe payment success page")
	fset.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", envString("STRIPE_FAILURE_URL", "https://example.com/failure.html"), "Stripe payment failure page")

	fset.StringVar(&cfg.TMDB.Token, "tmdb-token", envString("TMDB_API_KEY", ""), "TMDB API read access token")
	fset.StringVar(&cfg.TMDB.BaseURL, "tmdb-base-url", envString("TMDB_BASE_URL", catalog.DefaultBaseURL), "TMDB API base URL")
	fset.UintVar(&cfg.TMDB.RetryAttempts, "tmdb-retry-attempts", envUint("TMDB_RETRY_ATTEMPTS", 3), "TMDB attempts per request")
	fset.DurationVar(&cfg.TMDB.RetryDelay, "tmdb-retry-delay", envDuration("TMDB_RETRY_DELAY", 2*time.Second), "TMDB delay before the first retry")

	fset.DurationVar(&cfg.Reservation.HoldTTL, "hold-ttl", envDuration("HOLD_TTL", reservation.DefaultHoldTTL), "How long seats stay held awaiting payment")
	fset.DurationVar(&cfg.Reservation.SweepInterval, "sweep-interval", envDuration("SWEEP_INTERVAL", expiry.DefaultInterval), "Interval of the expired hold sweep")
	fset.UintVar(&cfg.Reservation.LedgerAttempts, "ledger-attempts", envUint("LEDGER_ATTEMPTS", 5), "Attempts per seat ledger transition under contention")

	fset.StringVar(&cfg.AdminToken, "admin-token", envString("ADMIN_TOKEN", ""), "Bearer token for admin endpoints, empty disables them")
	fset.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envString("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	displayVersion := fset.Bool("version", false, "Display version and exit")

	err = fset.Parse(args)
	if err != nil {
		return Config{}, false, err
	}

	if cfg.Reservation.SweepInterval >= cfg.Reservation.HoldTTL {
		return Config{}, false, errors.New("sweep-interval must be shorter than hold-ttl")
	}

	return cfg, *displayVersion, nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envUint(key string, fallback uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
