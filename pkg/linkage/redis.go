package linkage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient é o subconjunto do *redis.Client usado pelo store (permite Mock).
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore grava cada body sob "<prefix><referência>" com SETNX, o que garante
// que uma referência nunca sobrescreve outra.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "mock:ref:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) Put(ctx context.Context, body json.RawMessage) (string, error) {
	value := string(body)
	return issue(ctx, func(ctx context.Context, ref string) (bool, error) {
		ok, err := r.client.SetNX(ctx, r.prefix+ref, value, r.ttl).Result()
		if err != nil {
			return false, backendError("redis", "SETNX", err)
		}
		return ok, nil
	})
}

func (r *RedisStore) Get(ctx context.Context, reference string) (json.RawMessage, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+reference).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, backendError("redis", "GET", err)
	}
	return json.RawMessage(val), true, nil
}
