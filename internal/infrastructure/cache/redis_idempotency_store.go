package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const webhookKeyPrefix = "boutique:webhook:processed:"

// RedisIdempotencyStore shares processed webhook ids across API instances
type RedisIdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisIdempotencyStore wraps a client owned by the caller. An empty
// prefix selects the webhook namespace.
func NewRedisIdempotencyStore(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = webhookKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

// MarkProcessed claims id with SET NX, so of two instances receiving the
// same delivery only one applies it
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, s.prefix+id, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim webhook %s: %w", id, err)
	}
	return claimed, nil
}

func (s *RedisIdempotencyStore) Forget(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("release webhook %s: %w", id, err)
	}
	return nil
}

// Close leaves the client open; main closes it
func (s *RedisIdempotencyStore) Close() error { return nil }

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
