package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailsBody = `{
	"id": 550,
	"title": "Fight Club",
	"overview": "An insomniac office worker...",
	"poster_path": "/poster.jpg",
	"backdrop_path": "/backdrop.jpg",
	"genres": [{"id": 18, "name": "Drama"}],
	"release_date": "1999-10-15",
	"original_language": "en",
	"tagline": "Mischief. Mayhem. Soap.",
	"vote_average": 8.5,
	"runtime": 139,
	"credits": {"id": 550, "cast": [{"name": "Edward Norton"}, {"name": "Brad Pitt"}]}
}`

func newTestClient(t *testing.T, handler http.Handler) *TMDBClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := NewTMDBClient("token", logger, WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	return client
}

func TestNewTMDBClientRequiresToken(t *testing.T) {
	_, err := NewTMDBClient("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestMovie(t *testing.T) {
	var detailsCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/movie/550", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "credits", r.URL.Query().Get("append_to_response"))

		if detailsCalls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, detailsBody)
	})

	client := newTestClient(t, mux)

	movie, err := client.Movie(context.Background(), 550)
	require.NoError(t, err)

	releaseDate := time.Date(1999, 10, 15, 0, 0, 0, 0, time.UTC)
	want := &domain.Movie{
		ID:               550,
		Title:            "Fight Club",
		Overview:         "An insomniac office worker...",
		PosterPath:       "/poster.jpg",
		BackdropPath:     "/backdrop.jpg",
		Genres:           []string{"Drama"},
		CastMembers:      []string{"Edward Norton", "Brad Pitt"},
		ReleaseDate:      &releaseDate,
		OriginalLanguage: "en",
		Tagline:          "Mischief. Mayhem. Soap.",
		VoteAverage:      8.5,
		Runtime:          139,
	}

	if diff := cmp.Diff(want, movie); diff != "" {
		t.Errorf("movie mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int32(3), detailsCalls.Load())
}

func TestMovieNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/movie/1" {
			calls.Add(1)
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Movie(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.NotErrorIs(t, err, domain.ErrTransientDependency)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRejectedRequestsAreNotTransient(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"status_code": 7, "status_message": "Invalid API key"}`)
			},
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"results": [`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32

			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))

			_, err := client.NowPlaying(context.Background())
			require.Error(t, err)
			assert.NotErrorIs(t, err, domain.ErrTransientDependency)
			assert.NotErrorIs(t, err, domain.ErrRecordNotFound)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.NowPlaying(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransientDependency)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNowPlaying(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/now_playing", r.URL.Path)
		io.WriteString(w, `{"results": [{"id": 1, "title": "One"}, {"id": 2, "title": "Two", "release_date": "bad"}]}`)
	}))

	movies, err := client.NowPlaying(context.Background())
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "One", movies[0].Title)
	assert.Equal(t, 2, movies[1].ID)
	assert.Nil(t, movies[1].ReleaseDate)
}
