package bytestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces entry keys in a shared Redis instance.
const DefaultRedisPrefix = "databank:entry:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or
	// "redis://:password@host:6379/0")
	URL string

	// Prefix namespaces keys (defaults to "databank:entry:").
	Prefix string
}

// RedisStore persists blobs in Redis for multi-instance deployments behind
// a load balancer. Entries carry no TTL: a year marked fully covered is
// treated as durably correct until an explicit reset, so expiry would only
// cause needless refetches.
type RedisStore struct {
	client *redis.Client
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	slog.Info("redis byte store connected", "prefix", prefix)

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Get returns the stored value for key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get blob from redis: %w", err)
	}
	s.hits.Add(1)
	return data, true, nil
}

// Set stores the value for key without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set blob in redis: %w", err)
	}
	return nil
}

// Delete removes key if present.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete blob from redis: %w", err)
	}
	return nil
}

// Stats scans the key namespace, summing stored value sizes. The scan is
// proportional to the number of entries, which stays small (one per
// indicator), so the cost is acceptable for an operator endpoint.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		size, err := s.client.StrLen(ctx, iter.Val()).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("failed to size redis blob: %w", err)
		}
		stats.ItemCount++
		stats.SizeBytes += size
	}
	if err := iter.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to scan redis keys: %w", err)
	}
	return stats, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
