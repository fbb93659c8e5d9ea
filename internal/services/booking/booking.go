// Package booking implements the slot-booking transaction engine: the
// single writer that debits a wallet and reserves a slot as one atomic
// unit, with idempotent replay for client retries.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/battleslot/arena/internal/infra/pgutils"
	"github.com/battleslot/arena/internal/notify"
	"github.com/battleslot/arena/internal/repos/accounts"
	pgaccounts "github.com/battleslot/arena/internal/repos/accounts/postgres"
	"github.com/battleslot/arena/internal/repos/bookings"
	pgbookings "github.com/battleslot/arena/internal/repos/bookings/postgres"
	"github.com/battleslot/arena/internal/repos/sessions"
	pgsessions "github.com/battleslot/arena/internal/repos/sessions/postgres"
)

var (
	// ErrTransactionAborted means the commit lost to storage contention
	// more times than the retry budget allows. The caller may retry the
	// whole request with the same idempotency key.
	ErrTransactionAborted = errors.New("transaction aborted")

	ErrMissingIdempotencyKey = errors.New("idempotency key required")
)

// Result of a booking. Replayed marks an idempotent replay: the original
// outcome returned again with no additional effect.
type Result struct {
	Position        int
	NewBalanceMinor int64
	Replayed        bool
}

type Engine struct {
	db       *sql.DB
	accounts accounts.Accounts
	sessions sessions.Sessions
	bookings bookings.Bookings
	notifier notify.Notifier

	maxAttempts int
	backoff     time.Duration
}

// Option tweaks engine behavior; the defaults suit production use.
type Option func(*Engine)

func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(e *Engine) {
		if maxAttempts > 0 {
			e.maxAttempts = maxAttempts
		}

		e.backoff = backoff
	}
}

func New(db *sql.DB, notifier notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		db:          db,
		accounts:    pgaccounts.New(db),
		sessions:    pgsessions.New(db),
		bookings:    pgbookings.New(db),
		notifier:    notifier,
		maxAttempts: 3,
		backoff:     50 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// BookSlot reserves one slot in the session and debits the account's
// wallet by the entry fee, all inside a single DB transaction:
//
// 1) Replay check: a booking already committed under this key returns
//    the stored result, no second effect.
// 2) Lock session row (FOR UPDATE); reject closed or full sessions.
// 3) Lock account row; reject inactive accounts and short balances.
// 4) Debit wallet and append the completed wallet ledger entry.
// 5) Reserve the slot; filling the last one flips status to in_progress
//    in the same statement.
// 6) Append the slot history entry and the booking record keyed by the
//    idempotency key.
//
// Lock order is fixed across all transactions: session row first, then
// account row. Transient serialization failures are retried with backoff
// up to the attempt budget; exhausting it surfaces ErrTransactionAborted.
// The notifier fires after commit, outside the transaction.
func (e *Engine) BookSlot(ctx context.Context, accountID, sessionID uuid.UUID, idempotencyKey string) (Result, error) {
	if idempotencyKey == "" {
		return Result{}, ErrMissingIdempotencyKey
	}

	if prior, ok, err := e.replay(ctx, idempotencyKey); err != nil {
		return Result{}, err
	} else if ok {
		return prior, nil
	}

	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		res, update, err := e.attempt(ctx, accountID, sessionID, idempotencyKey)

		switch {
		case err == nil:
			e.publish(ctx, update)

			return res, nil

		case errors.Is(err, bookings.ErrDuplicateBooking):
			// Lost an insert race with a concurrent request carrying the
			// same key; the winner's result is ours too.
			prior, ok, rerr := e.replay(ctx, idempotencyKey)
			if rerr != nil {
				return Result{}, rerr
			}

			if ok {
				return prior, nil
			}

			return Result{}, fmt.Errorf("booking vanished after duplicate key: %w", ErrTransactionAborted)

		case errors.Is(err, sessions.ErrSlotUnavailable),
			errors.Is(err, accounts.ErrInsufficientFunds),
			errors.Is(err, accounts.ErrAccountInactive):
			// A concurrent request carrying the same key may have committed
			// while this one waited on the row locks, leaving a state that
			// now fails validation. The stored result wins over the stale
			// failure.
			prior, ok, rerr := e.replay(ctx, idempotencyKey)
			if rerr != nil {
				return Result{}, rerr
			}

			if ok {
				return prior, nil
			}

			return Result{}, err

		case retryable(err):
			lastErr = err

			slog.Warn("booking transaction retry",
				"attempt", attempt,
				"sessionId", sessionID,
				"error", err,
			)

			if werr := e.wait(ctx); werr != nil {
				return Result{}, werr
			}

		default:
			return Result{}, err
		}
	}

	return Result{}, fmt.Errorf("%w: %v", ErrTransactionAborted, lastErr)
}

func (e *Engine) attempt(ctx context.Context, accountID, sessionID uuid.UUID, idempotencyKey string) (Result, notify.SlotUpdate, error) {
	var (
		res    Result
		update notify.SlotUpdate
	)

	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		sess, err := e.sessions.LockAndGet(tx, sessionID)
		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}

		if sess.Status != sessions.StatusOpen || sess.FilledSlots >= sess.MaxSlots {
			return fmt.Errorf("session %s: %w", sessionID, sessions.ErrSlotUnavailable)
		}

		acct, err := e.accounts.LockAndGet(tx, accountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if !acct.Active {
			return fmt.Errorf("account %s: %w", accountID, accounts.ErrAccountInactive)
		}

		if acct.BalanceMinor < sess.EntryFeeMinor {
			return fmt.Errorf("balance %d, fee %d: %w",
				acct.BalanceMinor, sess.EntryFeeMinor, accounts.ErrInsufficientFunds)
		}

		err = e.accounts.Debit(tx, accountID, sess.EntryFeeMinor)
		if err != nil {
			return fmt.Errorf("debit entry fee: %w", err)
		}

		err = e.accounts.AppendWalletEntry(tx, accounts.WalletEntry{
			AccountID:   accountID,
			AmountMinor: sess.EntryFeeMinor,
			Kind:        accounts.KindDebit,
			Status:      accounts.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("append wallet entry: %w", err)
		}

		filled, status, err := e.sessions.Reserve(tx, sessionID)
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}

		err = e.accounts.AppendSlotEntry(tx, accounts.SlotEntry{
			AccountID:     accountID,
			SessionID:     sessionID,
			Mode:          sess.Title,
			EntryFeeMinor: sess.EntryFeeMinor,
			Position:      filled,
		})
		if err != nil {
			return fmt.Errorf("append slot entry: %w", err)
		}

		newBalance := acct.BalanceMinor - sess.EntryFeeMinor

		err = e.bookings.Insert(tx, bookings.Booking{
			IdempotencyKey:  idempotencyKey,
			AccountID:       accountID,
			SessionID:       sessionID,
			Position:        filled,
			NewBalanceMinor: newBalance,
		})
		if err != nil {
			return fmt.Errorf("record booking: %w", err)
		}

		res = Result{Position: filled, NewBalanceMinor: newBalance}
		update = notify.SlotUpdate{
			SessionID:     sessionID,
			Title:         sess.Title,
			FilledSlots:   filled,
			MaxSlots:      sess.MaxSlots,
			Status:        status,
			EntryFeeMinor: sess.EntryFeeMinor,
		}

		return nil
	})
	if err != nil {
		return Result{}, notify.SlotUpdate{}, fmt.Errorf("book slot: %w", err)
	}

	return res, update, nil
}

// replay returns the stored result for an idempotency key, if one exists.
func (e *Engine) replay(ctx context.Context, idempotencyKey string) (Result, bool, error) {
	b, err := e.bookings.Get(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) {
			return Result{}, false, nil
		}

		return Result{}, false, fmt.Errorf("load booking: %w", err)
	}

	return Result{
		Position:        b.Position,
		NewBalanceMinor: b.NewBalanceMinor,
		Replayed:        true,
	}, true, nil
}

// publish pushes the post-commit capacity snapshot to observers. Failures
// are logged, never surfaced: notification is not part of the booking's
// correctness guarantee.
func (e *Engine) publish(ctx context.Context, update notify.SlotUpdate) {
	if e.notifier == nil {
		return
	}

	// Detach from the request: a caller that hangs up after commit must
	// not cancel the broadcast.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)

	go func() {
		defer cancel()

		err := e.notifier.Publish(nctx, update)
		if err != nil {
			slog.Warn("slot update publish failed",
				"sessionId", update.SessionID,
				"error", err,
			)
		}
	}()
}

func (e *Engine) wait(ctx context.Context) error {
	if e.backoff <= 0 {
		return nil
	}

	timer := time.NewTimer(e.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("booking canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// retryable matches transient Postgres failures worth another attempt:
// serialization failures (40001) and deadlocks (40P01).
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	return false
}
