package payment

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which payment a client idempotency key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (paymentID string, found bool, err error)
	Remember(ctx context.Context, key, paymentID string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: idempotencyTTL}
}

func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	id, err := s.client.Get(ctx, "payment:idempotency:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *RedisIdempotencyStore) Remember(ctx context.Context, key, paymentID string) error {
	return s.client.Set(ctx, "payment:idempotency:"+key, paymentID, s.ttl).Err()
}
