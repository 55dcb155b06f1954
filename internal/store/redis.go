package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const historyKeyPrefix = "ota:history:"

// RedisStore keeps each session's history in a Redis list. The list is
// capped at maxPrompts and expires ttl after the last append.
type RedisStore struct {
	rdb        *redis.Client
	maxPrompts int
	ttl        time.Duration
}

func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewRedisStore(rdb *redis.Client, maxPrompts int, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, maxPrompts: maxPrompts, ttl: ttl}
}

func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func historyKey(sessionID string) string {
	return historyKeyPrefix + sessionID
}

func (r *RedisStore) Append(ctx context.Context, sessionID, prompt string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	key := historyKey(sessionID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, prompt)
		if r.maxPrompts > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxPrompts), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save prompt: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	out, err := r.rdb.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
