package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTimingTracker stores last-capture timestamps as unix milliseconds
// under prefix+key, expiring after ttl.
type RedisTimingTracker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisTimingTracker(client redis.Cmdable, prefix string, ttl time.Duration) *RedisTimingTracker {
	if prefix == "" {
		prefix = "devprint:seen:"
	}
	return &RedisTimingTracker{client: client, prefix: prefix, ttl: ttl}
}

func (t *RedisTimingTracker) RecordRequest(ctx context.Context, key string, at time.Time) error {
	if err := t.client.Set(ctx, t.prefix+key, at.UnixMilli(), t.ttl).Err(); err != nil {
		return fmt.Errorf("record request time: %w", err)
	}
	return nil
}

func (t *RedisTimingTracker) LastRequest(ctx context.Context, key string) (time.Time, bool, error) {
	ms, err := t.client.Get(ctx, t.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load request time: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}
