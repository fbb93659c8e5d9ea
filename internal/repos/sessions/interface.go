package sessions

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSlotUnavailable   = errors.New("no slots available")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status of a game session. Transitions are monotonic:
// open -> in_progress -> completed.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// rank orders statuses for the monotonic-transition check.
func (s Status) rank() int {
	switch s {
	case StatusOpen:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.rank() >= 0 }

// CanAdvanceTo reports whether the transition s -> target moves forward.
func (s Status) CanAdvanceTo(target Status) bool {
	return target.Valid() && target.rank() > s.rank()
}

// PrizeTable maps a rank ("1") or rank band ("4-10") to a prize amount in
// minor currency units. Stored as JSONB.
type PrizeTable map[string]int64

func (p PrizeTable) Value() (driver.Value, error) {
	if p == nil {
		p = PrizeTable{}
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal prize table: %w", err)
	}

	return b, nil
}

func (p *PrizeTable) Scan(src any) error {
	var data []byte

	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*p = PrizeTable{}
		return nil
	default:
		return fmt.Errorf("scan prize table: unsupported type %T", src)
	}

	err := json.Unmarshal(data, p)
	if err != nil {
		return fmt.Errorf("unmarshal prize table: %w", err)
	}

	return nil
}

type Session struct {
	ID            uuid.UUID
	Title         string
	EntryFeeMinor int64
	MaxSlots      int
	FilledSlots   int
	Status        Status
	PrizeTable    PrizeTable
	CreatedAt     time.Time
}

// Sessions is the session pool store. Reserve and Release mutate the fill
// counter and must run inside the caller's transaction.
type Sessions interface {
	Create(ctx context.Context, s Session) (Session, error)
	Get(ctx context.Context, id uuid.UUID) (Session, error)
	ListOpen(ctx context.Context) ([]Session, error)

	LockAndGet(tx *sql.Tx, id uuid.UUID) (Session, error)
	// Reserve takes one slot and reports the new fill count and status.
	// Filling the last slot flips the session to in_progress in the same
	// statement.
	Reserve(tx *sql.Tx, id uuid.UUID) (filled int, status Status, err error)
	// Release is the compensating decrement for a reservation. The booking
	// engine combines reserve and debit in one transaction, so it has no
	// caller today; it exists for future multi-step transactions.
	Release(tx *sql.Tx, id uuid.UUID) error
	UpdateStatus(tx *sql.Tx, id uuid.UUID, status Status) error
}
