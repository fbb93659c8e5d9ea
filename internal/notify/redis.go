package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "arena:slots:"

// publisher is the slice of the go-redis client the notifier needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier broadcasts slot updates over Redis Pub/Sub, one channel
// per session. Subscribers only see updates published during their
// connection lifetime; there is no replay.
type RedisNotifier struct {
	client publisher
	seq    *sequencer
}

var _ Notifier = (*RedisNotifier)(nil)

func NewRedis(client publisher) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		seq:    newSequencer(),
	}
}

// Channel returns the Pub/Sub channel name for a session.
func Channel(sessionID string) string {
	return channelPrefix + sessionID
}

func (n *RedisNotifier) Publish(ctx context.Context, update SlotUpdate) error {
	if !n.seq.advance(update) {
		return nil // stale update, a newer one already went out
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal slot update: %w", err)
	}

	err = n.client.Publish(ctx, Channel(update.SessionID.String()), payload).Err()
	if err != nil {
		return fmt.Errorf("publish slot update: %w", err)
	}

	return nil
}
