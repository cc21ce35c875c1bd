package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bevbrain/internal/model"
)

// RedisStore keeps the snapshot under two keys: the article array and
// a separate last-update timestamp, matching the file layout.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL, accepting either a redis:// URL
// or a bare host:port address.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if prefix == "" {
		prefix = "bevbrain"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) articlesKey() string   { return s.prefix + ":articles" }
func (s *RedisStore) lastUpdateKey() string { return s.prefix + ":last_update" }

func (s *RedisStore) Save(ctx context.Context, snap model.Snapshot) error {
	data, err := json.Marshal(snap.Articles)
	if err != nil {
		return fmt.Errorf("encoding articles: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.articlesKey(), data, 0)
	pipe.Set(ctx, s.lastUpdateKey(), snap.LastUpdate.UTC().Format(time.RFC3339), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot

	data, err := s.client.Get(ctx, s.articlesKey()).Bytes()
	if err == redis.Nil {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("loading articles: %w", err)
	}
	if err := json.Unmarshal(data, &snap.Articles); err != nil {
		return snap, fmt.Errorf("decoding articles: %w", err)
	}

	if raw, err := s.client.Get(ctx, s.lastUpdateKey()).Result(); err == nil {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			snap.LastUpdate = t
		}
	}

	return snap, nil
}

func (s *RedisStore) IsStale(ctx context.Context, maxAge time.Duration) bool {
	raw, err := s.client.Get(ctx, s.lastUpdateKey()).Result()
	if err != nil {
		return true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return time.Since(t) > maxAge
}
