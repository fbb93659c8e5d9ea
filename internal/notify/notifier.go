// Package notify fans out slot-capacity changes to interested observers.
// Delivery is best-effort: the booking engine publishes after commit and
// never inside the transaction, and an update that lost the race to a
// newer one for the same session is dropped rather than delivered out of
// order.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/battleslot/arena/internal/repos/sessions"
)

// SlotUpdate is the capacity snapshot broadcast after a committed booking.
type SlotUpdate struct {
	SessionID     uuid.UUID       `json:"sessionId"`
	Title         string          `json:"title"`
	FilledSlots   int             `json:"filledSlots"`
	MaxSlots      int             `json:"maxSlots"`
	Status        sessions.Status `json:"status"`
	EntryFeeMinor int64           `json:"entryFee"`
}

type Notifier interface {
	Publish(ctx context.Context, update SlotUpdate) error
}

// sequencer enforces per-session commit order: FilledSlots only grows for
// a session, so an update at or below the last published fill count is
// stale and must not go out.
//
// Counters are one int per session and are kept for the process
// lifetime; there is no eviction when a session completes.
type sequencer struct {
	mu   sync.Mutex
	last map[uuid.UUID]int
}

func newSequencer() *sequencer {
	return &sequencer{last: make(map[uuid.UUID]int)}
}

// advance reports whether the update is newer than anything already
// published for its session, and records it if so.
func (s *sequencer) advance(u SlotUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.last[u.SessionID]; ok && u.FilledSlots <= prev {
		return false
	}

	s.last[u.SessionID] = u.FilledSlots

	return true
}
