package accounts

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/infra/pgtestutil"
	"github.com/battleslot/arena/internal/repos/accounts"
)

func seedAccount(t *testing.T, db *sql.DB, username string, balance int64) uuid.UUID {
	t.Helper()

	var id uuid.UUID

	err := db.QueryRow(`
		INSERT INTO accounts (username, email, balance)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, username+"@example.com", balance).Scan(&id)
	if err != nil {
		t.Fatalf("seed account %q: %v", username, err)
	}

	return id
}

func TestAccounts_Debit_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		seedBalance int64
		amount      int64
		wantBalance int64
		wantErr     bool // true -> expect accounts.ErrInsufficientFunds
		checkFinal  bool
	}{
		{
			name:        "sufficient_funds_decrease_from_positive",
			seedBalance: 1_000,
			amount:      250,
			wantBalance: 750,
			checkFinal:  true,
		},
		{
			name:        "sufficient_funds_exact_to_zero",
			seedBalance: 300,
			amount:      300,
			wantBalance: 0,
			checkFinal:  true,
		},
		{
			name:        "insufficient_funds_balance_unchanged",
			seedBalance: 200,
			amount:      300,
			wantBalance: 200,
			wantErr:     true,
			checkFinal:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			id := seedAccount(t, db, "debit_"+tt.name, tt.seedBalance)

			repo := New(db)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			err = repo.Debit(tx, id, tt.amount)

			if tt.wantErr {
				if !errors.Is(err, accounts.ErrInsufficientFunds) {
					t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
				}
				// no commit on error
			} else {
				if err != nil {
					t.Fatalf("debit: %v", err)
				}
				err = tx.Commit()
				if err != nil {
					t.Fatalf("commit: %v", err)
				}
			}

			if tt.checkFinal {
				acc, gerr := repo.Get(ctx, id)
				if gerr != nil {
					t.Fatalf("get account after debit: %v", gerr)
				}
				if acc.BalanceMinor != tt.wantBalance {
					t.Fatalf("final balance mismatch: want %d, got %d", tt.wantBalance, acc.BalanceMinor)
				}
			}
		})
	}
}

func TestAccounts_Debit_MissingAccountTreatedAsInsufficient(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = repo.Debit(tx, uuid.New(), 100)
	if !errors.Is(err, accounts.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds for missing account, got: %v", err)
	}
}

func TestAccounts_Debit_ConcurrentGuard(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	id := seedAccount(t, db, "debit_concurrent", 1000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	success, insufficient := 0, 0

	worker := func(name string) {
		defer wg.Done()

		ctx := context.Background()
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Errorf("[%s] begin tx: %v", name, err)
			return
		}
		defer tx.Rollback()

		// Lock row first (this will serialize)
		_, err = repo.LockAndGet(tx, id)
		if err != nil {
			t.Errorf("[%s] lock account: %v", name, err)
			return
		}

		err = repo.Debit(tx, id, 1000)
		if err == nil {
			mu.Lock()
			success++
			mu.Unlock()
			if err := tx.Commit(); err != nil {
				t.Errorf("[%s] commit: %v", name, err)
			}
			return
		}

		if errors.Is(err, accounts.ErrInsufficientFunds) {
			mu.Lock()
			insufficient++
			mu.Unlock()
			_ = tx.Rollback()
			return
		}

		t.Errorf("[%s] unexpected error: %v", name, err)
	}

	wg.Add(2)
	go worker("A")
	go worker("B")
	wg.Wait()

	if success != 1 || insufficient != 1 {
		t.Fatalf("want 1 success and 1 insufficient, got success=%d insufficient=%d", success, insufficient)
	}
}
