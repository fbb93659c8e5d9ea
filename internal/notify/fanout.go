package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Fanout is an in-process notifier for single-node deployments and tests.
// Each subscriber gets a buffered channel; a subscriber that falls behind
// misses updates instead of blocking the publisher.
type Fanout struct {
	seq *sequencer

	mu   sync.Mutex
	subs map[uuid.UUID]map[int]chan SlotUpdate
	next int
}

var _ Notifier = (*Fanout)(nil)

func NewFanout() *Fanout {
	return &Fanout{
		seq:  newSequencer(),
		subs: make(map[uuid.UUID]map[int]chan SlotUpdate),
	}
}

// Subscribe registers an observer for one session. The returned cancel
// func must be called when the observer goes away.
func (f *Fanout) Subscribe(sessionID uuid.UUID, buffer int) (<-chan SlotUpdate, func()) {
	if buffer < 1 {
		buffer = 1
	}

	ch := make(chan SlotUpdate, buffer)

	f.mu.Lock()

	id := f.next
	f.next++

	if f.subs[sessionID] == nil {
		f.subs[sessionID] = make(map[int]chan SlotUpdate)
	}

	f.subs[sessionID][id] = ch

	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		if chans, ok := f.subs[sessionID]; ok {
			delete(chans, id)

			if len(chans) == 0 {
				delete(f.subs, sessionID)
			}
		}
	}

	return ch, cancel
}

func (f *Fanout) Publish(_ context.Context, update SlotUpdate) error {
	if !f.seq.advance(update) {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs[update.SessionID] {
		select {
		case ch <- update:
		default: // observer is behind; drop, delivery is at-most-once
		}
	}

	return nil
}
