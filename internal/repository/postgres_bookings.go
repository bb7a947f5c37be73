package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) GetSummariesByHolder(
	ctx context.Context,
	holderToken string,
	pagination domain.Pagination) ([]domain.BookingSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			b.id,
			b.show_id,
			m.title,
			m.poster_path,
			s.starts_at,
			b.seat_ids,
			b.total_price,
			b.status,
			b.confirmed_at
		FROM bookings b
		JOIN shows s ON b.show_id = s.id
		JOIN movies m ON s.movie_id = m.id
		WHERE b.holder_token = $1
		ORDER BY b.confirmed_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, holderToken, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.BookingSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var booking domain.BookingSummary
		var status string

		err := rows.Scan(
			&totalRecords,
			&booking.BookingID,
			&booking.ShowID,
			&booking.MovieTitle,
			&booking.PosterPath,
			&booking.StartsAt,
			&booking.SeatIDs,
			&booking.TotalPrice,
			&status,
			&booking.ConfirmedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		booking.Status = domain.BookingStatus(status)
		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}
