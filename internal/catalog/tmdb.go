package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	tmdb "github.com/cyruzin/golang-tmdb"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
	requestTimeout      = 10 * time.Second
	maxCastMembers      = 10

	// Path prefix the TMDB client puts in front of every endpoint.
	apiVersionPrefix = "/3"
)

// TMDBClient fetches movie metadata. Failures never reach seat state.
// Retryable failures surface as ErrTransientDependency once the retry
// budget is spent; rejected requests fail immediately.
type TMDBClient struct {
	tmdb         *tmdb.Client
	baseURL      *url.URL
	httpClient   *http.Client
	logger       *slog.Logger
	maxAttempts  uint
	initialDelay time.Duration
}

type Option func(*TMDBClient)

// WithBaseURL sends requests to another host, e.g. a local stand-in.
func WithBaseURL(raw string) Option {
	return func(c *TMDBClient) {
		if raw == "" || raw == DefaultBaseURL {
			return
		}

		u, err := url.Parse(strings.TrimRight(raw, "/"))
		if err != nil {
			c.logger.Warn("ignoring invalid catalog base url", "url", raw, "error", err)
			return
		}

		c.baseURL = u
	}
}

func WithRetry(maxAttempts uint, initialDelay time.Duration) Option {
	return func(c *TMDBClient) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			c.initialDelay = initialDelay
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *TMDBClient) {
		c.httpClient = client
	}
}

func NewTMDBClient(token string, logger *slog.Logger, opts ...Option) (*TMDBClient, error) {
	client, err := tmdb.InitV4(token)
	if err != nil {
		return nil, fmt.Errorf("init tmdb client: %w", err)
	}

	c := &TMDBClient{
		tmdb:         client,
		httpClient:   &http.Client{Timeout: requestTimeout},
		logger:       logger.With("component", "catalog"),
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	next := c.httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	httpClient := *c.httpClient
	httpClient.Transport = &transport{baseURL: c.baseURL, next: next}
	c.tmdb.SetClientConfig(httpClient)

	return c, nil
}

// Movie fetches details with the cast appended in a single request.
func (c *TMDBClient) Movie(ctx context.Context, id int) (*domain.Movie, error) {
	options := map[string]string{"append_to_response": "credits"}

	details, err := retry(ctx, c, fmt.Sprintf("movie %d", id), func() (*tmdb.MovieDetails, error) {
		return c.tmdb.GetMovieDetails(id, options)
	})
	if err != nil {
		return nil, err
	}

	movie := &domain.Movie{
		ID:               id,
		Title:            details.Title,
		Overview:         details.Overview,
		PosterPath:       details.PosterPath,
		BackdropPath:     details.BackdropPath,
		ReleaseDate:      parseReleaseDate(details.ReleaseDate),
		OriginalLanguage: details.OriginalLanguage,
		Tagline:          details.Tagline,
		VoteAverage:      float64(details.VoteAverage),
		Runtime:          int(details.Runtime),
	}

	for _, g := range details.Genres {
		movie.Genres = append(movie.Genres, g.Name)
	}

	if details.MovieCreditsAppend != nil && details.Credits.MovieCredits != nil {
		for i, member := range details.Credits.Cast {
			if i == maxCastMembers {
				break
			}
			movie.CastMembers = append(movie.CastMembers, member.Name)
		}
	}

	return movie, nil
}

func (c *TMDBClient) NowPlaying(ctx context.Context) ([]*domain.Movie, error) {
	page, err := retry(ctx, c, "now playing", func() (*tmdb.MovieNowPlaying, error) {
		return c.tmdb.GetMovieNowPlaying(nil)
	})
	if err != nil {
		return nil, err
	}

	movies := make([]*domain.Movie, 0, len(page.Results))
	for _, m := range page.Results {
		movies = append(movies, &domain.Movie{
			ID:               int(m.ID),
			Title:            m.Title,
			Overview:         m.Overview,
			PosterPath:       m.PosterPath,
			BackdropPath:     m.BackdropPath,
			ReleaseDate:      parseReleaseDate(m.ReleaseDate),
			OriginalLanguage: m.OriginalLanguage,
			VoteAverage:      float64(m.VoteAverage),
		})
	}

	return movies, nil
}

func parseReleaseDate(raw string) *time.Time {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil
	}

	return &t
}

// retry repeats call on network errors, 429 and 5xx with a doubling delay.
// A 404 maps to ErrRecordNotFound. Other rejections and undecodable bodies
// are returned as they are, without retrying.
func retry[T any](ctx context.Context, c *TMDBClient, what string, call func() (T, error)) (T, error) {
	attempt := 0
	retryable := false

	op := func() (T, error) {
		attempt++

		result, err := call()
		if err == nil {
			return result, nil
		}

		err = classify(err)

		var permanent *backoff.PermanentError
		retryable = !errors.As(err, &permanent)
		if retryable {
			c.logger.Warn("catalog request failed", "request", what, "attempt", attempt, "error", err)
		}

		return result, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	result, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxAttempts))
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, context.Canceled):
		return result, err
	case retryable, errors.Is(err, context.DeadlineExceeded):
		return result, fmt.Errorf("%w: catalog %s: %w", domain.ErrTransientDependency, what, err)
	default:
		return result, fmt.Errorf("catalog %s: %w", what, err)
	}
}

func classify(err error) error {
	var status *statusError
	if errors.As(err, &status) {
		switch {
		case status.code == http.StatusNotFound:
			return backoff.Permanent(domain.ErrRecordNotFound)
		case status.code == http.StatusTooManyRequests || status.code >= 500:
			return status
		default:
			return backoff.Permanent(status)
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return err
	}

	return backoff.Permanent(fmt.Errorf("decode catalog response: %w", err))
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("catalog responded with status %d", e.code)
	}

	return fmt.Sprintf("catalog responded with status %d: %s", e.code, e.body)
}

// transport points requests at the configured host and turns non-2xx
// responses into a statusError so failures can be told apart by status.
type transport struct {
	baseURL *url.URL
	next    http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.baseURL != nil {
		req = req.Clone(req.Context())
		req.URL.Scheme = t.baseURL.Scheme
		req.URL.Host = t.baseURL.Host
		req.URL.Path = t.baseURL.Path + strings.TrimPrefix(req.URL.Path, apiVersionPrefix)
		req.URL.RawPath = ""
		req.Host = ""
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	return resp, nil
}
