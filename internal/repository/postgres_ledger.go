package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

const holdColumns = `id, show_id, seat_ids, holder_token, status, release_reason, created_at, expires_at, resolved_at`

const bookingColumns = `id, show_id, hold_id, seat_ids, holder_token, total_price, payment_ref, status,
	confirmed_at, cancelled_at, cancel_reason`

// PostgresLedgerStore keeps seat states, holds and bookings. Every change
// bumps shows.seat_version inside the same transaction, which is the
// compare-and-update guard against concurrent writers.
type PostgresLedgerStore struct {
	db *pgxpool.Pool
}

func NewPostgresLedgerStore(db *pgxpool.Pool) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

func (p *PostgresLedgerStore) GetSeatMap(ctx context.Context, showID int) (*domain.SeatMap, error) {
	var seatMap *domain.SeatMap

	txOptions := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	err := runInTxWithOptions(ctx, p.db, txOptions, func(tx pgx.Tx) error {
		m := &domain.SeatMap{ShowID: showID}

		query := `SELECT seat_version, price, layout FROM shows WHERE id = $1`

		err := tx.QueryRow(ctx, query, showID).Scan(&m.Version, &m.Price, &m.Layout)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}
			return err
		}

		query = `
			SELECT ss.seat_id, ss.status, ss.hold_id, COALESCE(h.holder_token, ''), h.expires_at, ss.booking_id
			FROM show_seats ss
			LEFT JOIN holds h ON h.id = ss.hold_id
			WHERE ss.show_id = $1
		`

		rows, err := tx.Query(ctx, query, showID)
		if err != nil {
			return err
		}
		defer rows.Close()

		m.Seats = make(map[string]domain.SeatState, len(m.Layout))

		for rows.Next() {
			var seat domain.SeatState
			var status string

			err := rows.Scan(
				&seat.SeatID,
				&status,
				&seat.HoldID,
				&seat.HolderToken,
				&seat.Deadline,
				&seat.BookingID,
			)
			if err != nil {
				return err
			}

			seat.Status = domain.SeatStatus(status)
			if seat.Status != domain.SeatHeld {
				seat.HoldID = nil
				seat.HolderToken = ""
				seat.Deadline = nil
			}

			m.Seats[seat.SeatID] = seat
		}

		if err = rows.Err(); err != nil {
			return err
		}

		seatMap = m

		return nil
	})
	if err != nil {
		return nil, err
	}

	return seatMap, nil
}

func (p *PostgresLedgerStore) GetHold(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = $1`

	hold, err := scanHold(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	return hold, nil
}

func (p *PostgresLedgerStore) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	return p.getBooking(ctx, query, id)
}

func (p *PostgresLedgerStore) GetBookingByHold(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE hold_id = $1`

	return p.getBooking(ctx, query, holdID)
}

func (p *PostgresLedgerStore) getBooking(ctx context.Context, query string, arg uuid.UUID) (*domain.Booking, error) {
	var booking domain.Booking
	var status string

	err := p.db.QueryRow(ctx, query, arg).Scan(
		&booking.ID,
		&booking.ShowID,
		&booking.HoldID,
		&booking.SeatIDs,
		&booking.HolderToken,
		&booking.TotalPrice,
		&booking.PaymentRef,
		&status,
		&booking.ConfirmedAt,
		&booking.CancelledAt,
		&booking.CancelReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}

	booking.Status = domain.BookingStatus(status)

	return &booking, nil
}

func (p *PostgresLedgerStore) Apply(ctx context.Context, change domain.LedgerChange) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			UPDATE shows
			SET seat_version = seat_version + 1
			WHERE id = $1 AND seat_version = $2
		`

		tag, err := tx.Exec(ctx, query, change.ShowID, change.ExpectedVersion)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			var exists bool
			err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shows WHERE id = $1)`, change.ShowID).Scan(&exists)
			if err != nil {
				return err
			}

			if !exists {
				return domain.ErrRecordNotFound
			}

			return domain.ErrEditConflict
		}

		for _, hold := range change.Holds {
			err = upsertHold(ctx, tx, hold)
			if err != nil {
				return err
			}
		}

		if change.Booking != nil {
			err = upsertBooking(ctx, tx, change.Booking)
			if err != nil {
				return err
			}
		}

		return updateSeats(ctx, tx, change.ShowID, change.Seats)
	})

	return translateError(err)
}

func upsertHold(ctx context.Context, tx pgx.Tx, hold *domain.Hold) error {
	query := `
		INSERT INTO holds (` + holdColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
			release_reason = EXCLUDED.release_reason,
			resolved_at = EXCLUDED.resolved_at
	`

	_, err := tx.Exec(
		ctx,
		query,
		hold.ID,
		hold.ShowID,
		hold.SeatIDs,
		hold.HolderToken,
		string(hold.Status),
		hold.ReleaseReason,
		hold.CreatedAt,
		hold.ExpiresAt,
		hold.ResolvedAt,
	)

	return err
}

func upsertBooking(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
			cancelled_at = EXCLUDED.cancelled_at,
			cancel_reason = EXCLUDED.cancel_reason
	`

	_, err := tx.Exec(
		ctx,
		query,
		booking.ID,
		booking.ShowID,
		booking.HoldID,
		booking.SeatIDs,
		booking.HolderToken,
		booking.TotalPrice,
		booking.PaymentRef,
		string(booking.Status),
		booking.ConfirmedAt,
		booking.CancelledAt,
		booking.CancelReason,
	)

	return err
}

func updateSeats(ctx context.Context, tx pgx.Tx, showID int, seats []domain.SeatState) error {
	if len(seats) == 0 {
		return nil
	}

	query := `
		UPDATE show_seats
		SET status = $3, hold_id = $4, booking_id = $5
		WHERE show_id = $1 AND seat_id = $2
	`

	batch := &pgx.Batch{}
	for _, seat := range seats {
		batch.Queue(query, showID, seat.SeatID, string(seat.Status), seat.HoldID, seat.BookingID)
	}

	br := tx.SendBatch(ctx, batch)

	for _, seat := range seats {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return err
		}

		if tag.RowsAffected() == 0 {
			br.Close()
			return fmt.Errorf("seat %s not found in show %d", seat.SeatID, showID)
		}
	}

	return br.Close()
}

func (p *PostgresLedgerStore) ListActiveHolds(ctx context.Context) ([]*domain.Hold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM holds
		WHERE status = 'held'
		ORDER BY expires_at
	`

	return p.listHolds(ctx, query)
}

func (p *PostgresLedgerStore) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Hold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM holds
		WHERE status = 'held' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	return p.listHolds(ctx, query, now, limit)
}

func (p *PostgresLedgerStore) listHolds(ctx context.Context, query string, args ...any) ([]*domain.Hold, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]*domain.Hold, 0)

	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, err
		}

		holds = append(holds, hold)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holds, nil
}

func scanHold(row pgx.Row) (*domain.Hold, error) {
	var hold domain.Hold
	var status string

	err := row.Scan(
		&hold.ID,
		&hold.ShowID,
		&hold.SeatIDs,
		&hold.HolderToken,
		&status,
		&hold.ReleaseReason,
		&hold.CreatedAt,
		&hold.ExpiresAt,
		&hold.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	hold.Status = domain.HoldStatus(status)

	return &hold, nil
}
