package bookings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicateBooking = errors.New("duplicate booking")
	ErrBookingNotFound  = errors.New("booking not found")
)

// Booking records a committed slot reservation keyed by the caller's
// idempotency key. Replays read this row back instead of re-running the
// transaction.
type Booking struct {
	IdempotencyKey  string
	AccountID       uuid.UUID
	SessionID       uuid.UUID
	Position        int
	NewBalanceMinor int64
	CreatedAt       time.Time
}

type Bookings interface {
	// Insert stores the booking record; a unique-key conflict surfaces as
	// ErrDuplicateBooking.
	Insert(tx *sql.Tx, b Booking) error
	Get(ctx context.Context, idempotencyKey string) (Booking, error)
}
