package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "planifika:session:"

// RedisBackend keeps one browser session's values in a Redis hash. The
// browser only carries the opaque session id.
type RedisBackend struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisBackend creates a backend for sessionID. Every write extends the
// hash expiry to ttl.
func NewRedisBackend(client redis.Cmdable, sessionID string, ttl time.Duration) *RedisBackend {
	return &RedisBackend{
		client: client,
		key:    redisKeyPrefix + sessionID,
		ttl:    ttl,
	}
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session from redis: %w", err)
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		fields[k] = v
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write session to redis: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, r.key, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
