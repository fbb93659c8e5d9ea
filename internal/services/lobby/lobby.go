// Package lobby manages the game-session catalogue: creation with
// prize-table validation, open-session listing, and the monotonic status
// lifecycle.
package lobby

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/infra/pgutils"
	"github.com/battleslot/arena/internal/repos/sessions"
	pgsessions "github.com/battleslot/arena/internal/repos/sessions/postgres"
)

var ErrInvalidSession = errors.New("invalid session")

// Prize labels are a single rank ("3") or an inclusive band ("4-10").
var prizeLabelRe = regexp.MustCompile(`^([1-9][0-9]*)(-([1-9][0-9]*))?$`)

type Service struct {
	db       *sql.DB
	sessions sessions.Sessions
}

func New(db *sql.DB) *Service {
	return &Service{
		db:       db,
		sessions: pgsessions.New(db),
	}
}

type CreateParams struct {
	Title         string
	EntryFeeMinor int64
	MaxSlots      int
	PrizeTable    sessions.PrizeTable
}

func (p CreateParams) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidSession)
	}

	if p.EntryFeeMinor <= 0 {
		return fmt.Errorf("%w: entry fee must be positive", ErrInvalidSession)
	}

	if p.MaxSlots <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidSession)
	}

	if len(p.PrizeTable) == 0 {
		return fmt.Errorf("%w: prize table required", ErrInvalidSession)
	}

	for label, amount := range p.PrizeTable {
		if amount <= 0 {
			return fmt.Errorf("%w: prize for %q must be positive", ErrInvalidSession, label)
		}

		m := prizeLabelRe.FindStringSubmatch(label)
		if m == nil {
			return fmt.Errorf("%w: prize label %q is not a rank or band", ErrInvalidSession, label)
		}

		if m[3] != "" {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[3])

			if hi <= lo {
				return fmt.Errorf("%w: prize band %q must ascend", ErrInvalidSession, label)
			}
		}
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (sessions.Session, error) {
	err := params.validate()
	if err != nil {
		return sessions.Session{}, err
	}

	created, err := s.sessions.Create(ctx, sessions.Session{
		Title:         strings.TrimSpace(params.Title),
		EntryFeeMinor: params.EntryFeeMinor,
		MaxSlots:      params.MaxSlots,
		PrizeTable:    params.PrizeTable,
	})
	if err != nil {
		return sessions.Session{}, fmt.Errorf("create session: %w", err)
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (sessions.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("get session: %w", err)
	}

	return sess, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]sessions.Session, error) {
	open, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}

	return open, nil
}

// Advance moves a session's status forward. Reverse transitions are
// rejected; the check runs under the session row lock so concurrent
// advances serialize.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, target sessions.Status) (sessions.Session, error) {
	if !target.Valid() {
		return sessions.Session{}, fmt.Errorf("%w: unknown status %q", sessions.ErrInvalidTransition, target)
	}

	var out sessions.Session

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		sess, err := s.sessions.LockAndGet(tx, id)
		if err != nil {
			return fmt.Errorf("lock session: %w", err)
		}

		if !sess.Status.CanAdvanceTo(target) {
			return fmt.Errorf("%s -> %s: %w", sess.Status, target, sessions.ErrInvalidTransition)
		}

		err = s.sessions.UpdateStatus(tx, id, target)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		sess.Status = target
		out = sess

		return nil
	})
	if err != nil {
		return sessions.Session{}, fmt.Errorf("advance session: %w", err)
	}

	return out, nil
}
