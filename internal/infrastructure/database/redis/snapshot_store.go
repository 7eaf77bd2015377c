package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront/internal/domain/cart"
)

// SnapshotStore persists cart snapshots as plain Redis strings. Every write
// refreshes the TTL, so abandoned carts expire on their own.
type SnapshotStore struct {
	client *Client
	ttl    time.Duration
}

// NewSnapshotStore creates a Redis-backed snapshot store. A zero ttl keeps
// snapshots forever.
func NewSnapshotStore(client *Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Get returns the snapshot stored under key
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}
	return data, nil
}

// Put overwrites the snapshot stored under key
func (s *SnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot; a missing key is not an error
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}
	return nil
}
