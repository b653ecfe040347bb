package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shortontech/devprint/pkg/config"
)

const defaultRedisPrefix = "devprint:"

// Redis keeps each record as a JSON string with a TTL, a per-hash list of
// record IDs and a capped list of recent IDs. IDs whose record has expired
// are skipped on read.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	recentCap int64
}

func OpenRedis(ctx context.Context, cfg config.StoreConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(client, defaultRedisPrefix, cfg.RedisTTL, cfg.MemoryCap), nil
}

func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, recentCap int) *Redis {
	if recentCap <= 0 {
		recentCap = defaultMemoryCap
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, recentCap: int64(recentCap)}
}

func (s *Redis) recordKey(id string) string { return s.prefix + "rec:" + id }
func (s *Redis) hashKey(hash string) string { return s.prefix + "hash:" + hash }
func (s *Redis) recentKey() string          { return s.prefix + "recent" }

func (s *Redis) Save(ctx context.Context, r Record) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(r.ID), doc, s.ttl)
		pipe.LPush(ctx, s.hashKey(r.Fingerprint.Hash), r.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.hashKey(r.Fingerprint.Hash), s.ttl)
		}
		pipe.LPush(ctx, s.recentKey(), r.ID)
		pipe.LTrim(ctx, s.recentKey(), 0, s.recentCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save record %s: %w", r.ID, err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (Record, error) {
	doc, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	var r Record
	if err := json.Unmarshal(doc, &r); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return r, nil
}

func (s *Redis) FindByHash(ctx context.Context, hash string) ([]Record, error) {
	ids, err := s.client.LRange(ctx, s.hashKey(hash), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list hash %s: %w", hash, err)
	}
	return s.load(ctx, ids)
}

func (s *Redis) Recent(ctx context.Context, n int) ([]Record, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	ids, err := s.client.LRange(ctx, s.recentKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return s.load(ctx, ids)
}

func (s *Redis) load(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		doc, ok := v.(string)
		if !ok {
			continue // expired
		}
		var r Record
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Redis) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }
func (s *Redis) Close() error                   { return s.client.Close() }
