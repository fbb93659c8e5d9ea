package accounts

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/accounts"
)

func (r *accountsRepo) Credit(tx *sql.Tx, id uuid.UUID, amountMinor int64) error {
	_, err := tx.Exec(`
		UPDATE accounts
		SET balance = balance + $2
		WHERE id = $1
	`, id, amountMinor)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}

	return nil
}

// Debit decrements the balance only when funds cover the amount. Zero rows
// affected means the guard rejected the update.
func (r *accountsRepo) Debit(tx *sql.Tx, id uuid.UUID, amountMinor int64) error {
	res, err := tx.Exec(`
		UPDATE accounts
		SET balance = balance - $2
		WHERE id = $1
		  AND balance >= $2
	`, id, amountMinor)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrInsufficientFunds
	}

	return nil
}
