package sessions

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/sessions"
)

// Reserve takes one slot with a guarded update: the WHERE clause rejects
// closed or full sessions, and the CASE flips status to in_progress when
// the last slot fills, all in one statement. Zero rows back means the
// guard rejected the reservation.
func (r *sessionsRepo) Reserve(tx *sql.Tx, id uuid.UUID) (int, sessions.Status, error) {
	var (
		filled int
		status sessions.Status
	)

	err := tx.QueryRow(`
		UPDATE game_sessions
		SET filled_slots = filled_slots + 1,
		    status = CASE
		        WHEN filled_slots + 1 >= max_slots THEN 'in_progress'
		        ELSE status
		    END
		WHERE id = $1
		  AND status = 'open'
		  AND filled_slots < max_slots
		RETURNING filled_slots, status
	`, id).Scan(&filled, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", sessions.ErrSlotUnavailable
		}

		return 0, "", fmt.Errorf("reserve slot: %w", err)
	}

	return filled, status, nil
}

func (r *sessionsRepo) Release(tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.Exec(`
		UPDATE game_sessions
		SET filled_slots = filled_slots - 1
		WHERE id = $1
		  AND filled_slots > 0
	`, id)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return sessions.ErrSessionNotFound
	}

	return nil
}

func (r *sessionsRepo) UpdateStatus(tx *sql.Tx, id uuid.UUID, status sessions.Status) error {
	res, err := tx.Exec(`
		UPDATE game_sessions
		SET status = $2
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return sessions.ErrSessionNotFound
	}

	return nil
}
