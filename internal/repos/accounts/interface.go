package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account deactivated")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountExists     = errors.New("account already exists")
)

// EntryKind classifies a wallet ledger entry.
type EntryKind string

const (
	KindCredit EntryKind = "credit"
	KindDebit  EntryKind = "debit"
)

// EntryStatus records the settlement state of a wallet ledger entry.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
	StatusFailed    EntryStatus = "failed"
)

type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	BalanceMinor int64
	Active       bool
	CreatedAt    time.Time
}

// WalletEntry is an immutable record of a balance-affecting event.
type WalletEntry struct {
	ID          int64
	AccountID   uuid.UUID
	AmountMinor int64
	Kind        EntryKind
	Status      EntryStatus
	CreatedAt   time.Time
}

// SlotEntry is an immutable record of a booked tournament slot.
type SlotEntry struct {
	ID            int64
	AccountID     uuid.UUID
	SessionID     uuid.UUID
	Mode          string
	EntryFeeMinor int64
	Position      int
	PrizeMinor    *int64
	CreatedAt     time.Time
}

// Accounts is the account store. Methods taking *sql.Tx are only valid
// inside a transaction opened by the caller; balance mutations never
// happen outside one.
type Accounts interface {
	Create(ctx context.Context, username, email string) (Account, error)
	Get(ctx context.Context, id uuid.UUID) (Account, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	LockAndGet(tx *sql.Tx, id uuid.UUID) (Account, error)
	Credit(tx *sql.Tx, id uuid.UUID, amountMinor int64) error
	Debit(tx *sql.Tx, id uuid.UUID, amountMinor int64) error

	AppendWalletEntry(tx *sql.Tx, entry WalletEntry) error
	AppendSlotEntry(tx *sql.Tx, entry SlotEntry) error
	ListWalletEntries(ctx context.Context, id uuid.UUID) ([]WalletEntry, error)
	ListSlotEntries(ctx context.Context, id uuid.UUID) ([]SlotEntry, error)
}
