package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/battleslot/arena/internal/repos/accounts"
)

func (r *accountsRepo) Create(ctx context.Context, username, email string) (accounts.Account, error) {
	var acct accounts.Account

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (username, email)
		VALUES ($1, $2)
		RETURNING id, username, email, balance, active, created_at
	`, username, email).Scan(
		&acct.ID, &acct.Username, &acct.Email,
		&acct.BalanceMinor, &acct.Active, &acct.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return accounts.Account{}, accounts.ErrAccountExists
		}

		return accounts.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return acct, nil
}

func (r *accountsRepo) Get(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	var acct accounts.Account

	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, balance, active, created_at
		FROM accounts
		WHERE id = $1
	`, id).Scan(
		&acct.ID, &acct.Username, &acct.Email,
		&acct.BalanceMinor, &acct.Active, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("get account: %w", err)
	}

	return acct, nil
}

// Deactivate flips the active flag. Accounts are never deleted.
func (r *accountsRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET active = FALSE
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrAccountNotFound
	}

	return nil
}

func (r *accountsRepo) LockAndGet(tx *sql.Tx, id uuid.UUID) (accounts.Account, error) {
	var acct accounts.Account

	err := tx.QueryRow(`
		SELECT id, username, email, balance, active, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&acct.ID, &acct.Username, &acct.Email,
		&acct.BalanceMinor, &acct.Active, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("lock/get account: %w", err)
	}

	return acct, nil
}
