package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

type PostgresShowRepository struct {
	db *pgxpool.Pool
}

func NewPostgresShowRepository(db *pgxpool.Pool) *PostgresShowRepository {
	return &PostgresShowRepository{
		db: db,
	}
}

// Create inserts the show and seeds one free seat row per layout entry.
func (p *PostgresShowRepository) Create(ctx context.Context, show *domain.Show) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO shows (movie_id, starts_at, price, layout, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			show.MovieID,
			show.StartsAt,
			show.Price,
			show.Layout,
			string(show.Status)).Scan(&show.ID, &show.CreatedAt)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(show.Layout))
		for _, seatID := range show.Layout {
			rows = append(rows, []any{show.ID, seatID, string(domain.SeatFree)})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"show_seats"},
			[]string{"show_id", "seat_id", "status"},
			pgx.CopyFromRows(rows),
		)

		return err
	})

	return translateError(err)
}

func (p *PostgresShowRepository) GetById(ctx context.Context, id int) (*domain.Show, error) {
	query := `
		SELECT id, movie_id, starts_at, price, layout, status, created_at
		FROM shows
		WHERE id = $1
	`

	var show domain.Show
	var status string

	err := p.db.QueryRow(ctx, query, id).Scan(
		&show.ID,
		&show.MovieID,
		&show.StartsAt,
		&show.Price,
		&show.Layout,
		&status,
		&show.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	show.Status = domain.ShowStatus(status)

	return &show, nil
}

func (p *PostgresShowRepository) GetUpcomingMovieIds(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		SELECT DISTINCT movie_id
		FROM shows
		WHERE status = 'scheduled' AND starts_at > $1
		ORDER BY movie_id
	`

	rows, err := p.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresShowRepository) GetShowtimesByMovie(ctx context.Context, movieID int, now time.Time) ([]domain.Showtime, error) {
	query := `
		SELECT id, starts_at, price
		FROM shows
		WHERE movie_id = $1 AND status = 'scheduled' AND starts_at > $2
		ORDER BY starts_at
	`

	rows, err := p.db.Query(ctx, query, movieID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	showtimes := make([]domain.Showtime, 0)

	for rows.Next() {
		var showtime domain.Showtime

		err := rows.Scan(&showtime.ShowID, &showtime.StartsAt, &showtime.Price)
		if err != nil {
			return nil, err
		}

		showtimes = append(showtimes, showtime)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return showtimes, nil
}

// Invalidate cancels a show without deleting it; bookings keep pointing at
// it.
func (p *PostgresShowRepository) Invalidate(ctx context.Context, id int) error {
	query := `UPDATE shows SET status = 'cancelled' WHERE id = $1`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
