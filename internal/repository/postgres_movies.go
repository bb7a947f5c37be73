package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

const movieColumns = `id, title, overview, poster_path, backdrop_path, genres, cast_members, release_date,
	original_language, tagline, vote_average, runtime`

type PostgresMovieRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMovieRepository(db *pgxpool.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{
		db: db,
	}
}

// Create stores catalog metadata, refreshing it if the movie is known.
func (p *PostgresMovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	query := `
		INSERT INTO movies (` + movieColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			overview = EXCLUDED.overview,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			genres = EXCLUDED.genres,
			cast_members = EXCLUDED.cast_members,
			release_date = EXCLUDED.release_date,
			original_language = EXCLUDED.original_language,
			tagline = EXCLUDED.tagline,
			vote_average = EXCLUDED.vote_average,
			runtime = EXCLUDED.runtime,
			updated_at = NOW()
	`

	genres := movie.Genres
	if genres == nil {
		genres = []string{}
	}

	cast := movie.CastMembers
	if cast == nil {
		cast = []string{}
	}

	_, err := p.db.Exec(
		ctx,
		query,
		movie.ID,
		movie.Title,
		movie.Overview,
		movie.PosterPath,
		movie.BackdropPath,
		genres,
		cast,
		movie.ReleaseDate,
		movie.OriginalLanguage,
		movie.Tagline,
		movie.VoteAverage,
		movie.Runtime,
	)

	return err
}

func (p *PostgresMovieRepository) GetById(ctx context.Context, id int) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`

	movie, err := scanMovie(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return movie, nil
}

func (p *PostgresMovieRepository) GetByIds(ctx context.Context, ids []int) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ANY($1) ORDER BY title`

	rows, err := p.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]*domain.Movie, 0, len(ids))

	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}

		movies = append(movies, movie)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return movies, nil
}

func scanMovie(row pgx.Row) (*domain.Movie, error) {
	var movie domain.Movie

	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Overview,
		&movie.PosterPath,
		&movie.BackdropPath,
		&movie.Genres,
		&movie.CastMembers,
		&movie.ReleaseDate,
		&movie.OriginalLanguage,
		&movie.Tagline,
		&movie.VoteAverage,
		&movie.Runtime,
	)
	if err != nil {
		return nil, err
	}

	return &movie, nil
}
