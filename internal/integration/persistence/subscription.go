// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// subscription is one live snapshot listener. The mutex serializes
// deliveries against close: once close returns, no further callback can be
// invoked, even for a notification already in flight.
type subscription struct {
	pubsub *redis.PubSub

	mu     sync.Mutex
	closed bool
}

func (s *subscription) deliver(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return fn(ctx)
}

// loop re-delivers on every change notification. A failed re-query leaves
// the subscriber's last-known-good snapshot in place; the next notification
// retries naturally.
func (s *subscription) loop(ctx context.Context, channel string, fn func(context.Context) error) {
	for range s.pubsub.Channel() {
		if err := s.deliver(ctx, fn); err != nil {
			slog.Warn("Snapshot delivery failed", "channel", channel, "error", err)
		}
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// Closing the pubsub ends the delivery loop.
	if err := s.pubsub.Close(); err != nil {
		slog.Warn("Failed to close pubsub", "error", err)
	}
}
