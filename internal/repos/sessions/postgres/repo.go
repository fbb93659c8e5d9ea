package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/sessions"
)

var _ sessions.Sessions = (*sessionsRepo)(nil)

type sessionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *sessionsRepo {
	return &sessionsRepo{db: db}
}

const sessionColumns = `id, title, entry_fee, max_slots, filled_slots, status, prize_table, created_at`

func scanSession(row interface{ Scan(...any) error }) (sessions.Session, error) {
	var s sessions.Session

	err := row.Scan(
		&s.ID, &s.Title, &s.EntryFeeMinor, &s.MaxSlots,
		&s.FilledSlots, &s.Status, &s.PrizeTable, &s.CreatedAt,
	)

	return s, err
}

func (r *sessionsRepo) Create(ctx context.Context, s sessions.Session) (sessions.Session, error) {
	created, err := scanSession(r.db.QueryRowContext(ctx, `
		INSERT INTO game_sessions (title, entry_fee, max_slots, prize_table)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sessionColumns+`
	`, s.Title, s.EntryFeeMinor, s.MaxSlots, s.PrizeTable))
	if err != nil {
		return sessions.Session{}, fmt.Errorf("insert session: %w", err)
	}

	return created, nil
}

func (r *sessionsRepo) Get(ctx context.Context, id uuid.UUID) (sessions.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("get session: %w", err)
	}

	return s, nil
}

func (r *sessionsRepo) ListOpen(ctx context.Context) ([]sessions.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE status = 'open'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var out []sessions.Session

	for rows.Next() {
		s, serr := scanSession(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan session: %w", serr)
		}

		out = append(out, s)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return out, nil
}

func (r *sessionsRepo) LockAndGet(tx *sql.Tx, id uuid.UUID) (sessions.Session, error) {
	s, err := scanSession(tx.QueryRow(`
		SELECT `+sessionColumns+`
		FROM game_sessions
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrSessionNotFound
		}

		return sessions.Session{}, fmt.Errorf("lock/get session: %w", err)
	}

	return s, nil
}
