// Package wallet covers the account-facing operations around the booking
// core: account lifecycle, top-ups, balance and history reads. Top-up is
// the external already-atomic credit path; prize payouts arrive the same
// way.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/infra/pgutils"
	"github.com/battleslot/arena/internal/repos/accounts"
	pgaccounts "github.com/battleslot/arena/internal/repos/accounts/postgres"
)

var ErrInvalidAmount = errors.New("amount must be positive")

type Service struct {
	db       *sql.DB
	accounts accounts.Accounts
}

func New(db *sql.DB) *Service {
	return &Service{
		db:       db,
		accounts: pgaccounts.New(db),
	}
}

// History pairs the two append-only ledgers an account owns.
type History struct {
	WalletEntries []accounts.WalletEntry
	SlotEntries   []accounts.SlotEntry
}

func (s *Service) CreateAccount(ctx context.Context, username, email string) (accounts.Account, error) {
	acct, err := s.accounts.Create(ctx, username, email)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("create account: %w", err)
	}

	return acct, nil
}

func (s *Service) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	err := s.accounts.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}

	return nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	acct, err := s.accounts.Get(ctx, id)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("get account: %w", err)
	}

	return acct, nil
}

// TopUp atomically credits the wallet and appends the matching ledger
// entry. Returns the new balance.
func (s *Service) TopUp(ctx context.Context, id uuid.UUID, amountMinor int64) (int64, error) {
	if amountMinor <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance int64

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		acct, err := s.accounts.LockAndGet(tx, id)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		if !acct.Active {
			return fmt.Errorf("account %s: %w", id, accounts.ErrAccountInactive)
		}

		err = s.accounts.Credit(tx, id, amountMinor)
		if err != nil {
			return fmt.Errorf("credit: %w", err)
		}

		err = s.accounts.AppendWalletEntry(tx, accounts.WalletEntry{
			AccountID:   id,
			AmountMinor: amountMinor,
			Kind:        accounts.KindCredit,
			Status:      accounts.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("append wallet entry: %w", err)
		}

		newBalance = acct.BalanceMinor + amountMinor

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("top up: %w", err)
	}

	return newBalance, nil
}

func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) (History, error) {
	// Existence check first so an unknown account reads as NotFound, not
	// as an empty history.
	_, err := s.accounts.Get(ctx, id)
	if err != nil {
		return History{}, fmt.Errorf("get account: %w", err)
	}

	walletEntries, err := s.accounts.ListWalletEntries(ctx, id)
	if err != nil {
		return History{}, fmt.Errorf("list wallet entries: %w", err)
	}

	slotEntries, err := s.accounts.ListSlotEntries(ctx, id)
	if err != nil {
		return History{}, fmt.Errorf("list slot entries: %w", err)
	}

	return History{WalletEntries: walletEntries, SlotEntries: slotEntries}, nil
}
