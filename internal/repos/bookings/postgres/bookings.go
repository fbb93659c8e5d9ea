package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/battleslot/arena/internal/repos/bookings"
)

var _ bookings.Bookings = (*bookingsRepo)(nil)

type bookingsRepo struct{ db *sql.DB }

func New(db *sql.DB) *bookingsRepo {
	return &bookingsRepo{db: db}
}

func (r *bookingsRepo) Insert(tx *sql.Tx, b bookings.Booking) error {
	_, err := tx.Exec(`
		INSERT INTO bookings (idempotency_key, account_id, session_id, position, new_balance)
		VALUES ($1, $2, $3, $4, $5)
	`, b.IdempotencyKey, b.AccountID, b.SessionID, b.Position, b.NewBalanceMinor)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return bookings.ErrDuplicateBooking
		}

		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

func (r *bookingsRepo) Get(ctx context.Context, idempotencyKey string) (bookings.Booking, error) {
	var b bookings.Booking

	err := r.db.QueryRowContext(ctx, `
		SELECT idempotency_key, account_id, session_id, position, new_balance, created_at
		FROM bookings
		WHERE idempotency_key = $1
	`, idempotencyKey).Scan(
		&b.IdempotencyKey, &b.AccountID, &b.SessionID,
		&b.Position, &b.NewBalanceMinor, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bookings.Booking{}, bookings.ErrBookingNotFound
		}

		return bookings.Booking{}, fmt.Errorf("get booking: %w", err)
	}

	return b, nil
}
