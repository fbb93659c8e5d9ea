package accounts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/accounts"
)

func (r *accountsRepo) AppendWalletEntry(tx *sql.Tx, entry accounts.WalletEntry) error {
	_, err := tx.Exec(`
		INSERT INTO wallet_entries (account_id, amount, kind, status)
		VALUES ($1, $2, $3, $4)
	`, entry.AccountID, entry.AmountMinor, entry.Kind, entry.Status)
	if err != nil {
		return fmt.Errorf("append wallet entry: %w", err)
	}

	return nil
}

func (r *accountsRepo) AppendSlotEntry(tx *sql.Tx, entry accounts.SlotEntry) error {
	_, err := tx.Exec(`
		INSERT INTO slot_entries (account_id, session_id, mode, entry_fee, position, prize)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.AccountID, entry.SessionID, entry.Mode, entry.EntryFeeMinor, entry.Position, entry.PrizeMinor)
	if err != nil {
		return fmt.Errorf("append slot entry: %w", err)
	}

	return nil
}

func (r *accountsRepo) ListWalletEntries(ctx context.Context, id uuid.UUID) ([]accounts.WalletEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, amount, kind, status, created_at
		FROM wallet_entries
		WHERE account_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list wallet entries: %w", err)
	}
	defer rows.Close()

	var entries []accounts.WalletEntry

	for rows.Next() {
		var e accounts.WalletEntry

		err = rows.Scan(&e.ID, &e.AccountID, &e.AmountMinor, &e.Kind, &e.Status, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan wallet entry: %w", err)
		}

		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate wallet entries: %w", err)
	}

	return entries, nil
}

func (r *accountsRepo) ListSlotEntries(ctx context.Context, id uuid.UUID) ([]accounts.SlotEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, session_id, mode, entry_fee, position, prize, created_at
		FROM slot_entries
		WHERE account_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list slot entries: %w", err)
	}
	defer rows.Close()

	var entries []accounts.SlotEntry

	for rows.Next() {
		var e accounts.SlotEntry

		err = rows.Scan(&e.ID, &e.AccountID, &e.SessionID, &e.Mode, &e.EntryFeeMinor, &e.Position, &e.PrizeMinor, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan slot entry: %w", err)
		}

		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate slot entries: %w", err)
	}

	return entries, nil
}
