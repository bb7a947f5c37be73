package domain

import (
	"context"
	"time"
)

// Movie is the catalog metadata a show references. IDs are catalog ids.
type Movie struct {
	ID               int
	Title            string
	Overview         string
	PosterPath       string
	BackdropPath     string
	Genres           []string
	CastMembers      []string
	ReleaseDate      *time.Time
	OriginalLanguage string
	Tagline          string
	VoteAverage      float64
	Runtime          int
}

type MovieRepository interface {
	Create(ctx context.Context, movie *Movie) error
	GetById(ctx context.Context, id int) (*Movie, error)
	GetByIds(ctx context.Context, ids []int) ([]*Movie, error)
}

// MovieCatalog is the external metadata service.
type MovieCatalog interface {
	Movie(ctx context.Context, id int) (*Movie, error)
	NowPlaying(ctx context.Context) ([]*Movie, error)
}
