package memocache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const invalidationChannel = "revenue.cache.invalidate"

// clearAllToken is published when an entire store must be dropped.
const clearAllToken = "*"

// Broadcaster propagates cache invalidations to every replica through redis
// pub/sub. Each replica keeps its own Store; the broadcaster only carries the
// "drop this key" signal, never the cached data. A nil Broadcaster is valid
// and keeps invalidation process-local.
type Broadcaster struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBroadcaster wires a redis client for invalidation fan-out.
func NewBroadcaster(client *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{client: client, logger: logger}
}

// Invalidate drops key locally and publishes it to the other replicas.
// Publish failures are logged; local invalidation already happened.
func (b *Broadcaster) Invalidate(ctx context.Context, store *Store, key string) {
	store.Invalidate(key)
	if b == nil || b.client == nil {
		return
	}
	if err := b.client.Publish(ctx, invalidationChannel, key).Err(); err != nil && b.logger != nil {
		b.logger.Warn("cache invalidation publish", slog.String("key", key), slog.Any("error", err))
	}
}

// ClearAll drops every entry locally and broadcasts a full clear.
func (b *Broadcaster) ClearAll(ctx context.Context, store *Store) {
	store.ClearAll()
	if b == nil || b.client == nil {
		return
	}
	if err := b.client.Publish(ctx, invalidationChannel, clearAllToken).Err(); err != nil && b.logger != nil {
		b.logger.Warn("cache clear publish", slog.Any("error", err))
	}
}

// Listen applies remote invalidations to store until ctx is done.
func (b *Broadcaster) Listen(ctx context.Context, store *Store) {
	if b == nil || b.client == nil || store == nil {
		return
	}
	pubsub := b.client.Subscribe(ctx, invalidationChannel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == clearAllToken {
					store.ClearAll()
					continue
				}
				store.Invalidate(msg.Payload)
			}
		}
	}()
}
