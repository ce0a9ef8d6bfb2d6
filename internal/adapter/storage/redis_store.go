package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmontes/storefront/internal/core/domain"
)

const (
	sessionKeyPrefix     = "session:"
	idempotencyKeyPrefix = "checkout:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// RedisStore holds server-side session records and checkout idempotency keys.
// Sessions carry their own TTL; expiry is enforced by Redis, not application
// bookkeeping.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) GetSession(ctx context.Context, sessionID string) (*domain.Caller, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var caller domain.Caller
	if err := json.Unmarshal(data, &caller); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &caller, nil
}

func (r *RedisStore) PutSession(ctx context.Context, sessionID string, caller domain.Caller, ttl time.Duration) error {
	data, err := json.Marshal(caller)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+sessionID, data, ttl).Err()
}

func (r *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

func (r *RedisStore) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisStore) DeleteIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
