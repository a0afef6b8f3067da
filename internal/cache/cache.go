package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a cached analysis is served.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "sharpchess:analysis:"

// Cache stores encoded analysis results in Redis. A nil *Cache is valid and
// never hits.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to the Redis server at url (redis://[:pass@]host:port/db)
// and checks it answers.
func New(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Key namespaces k for storage.
func Key(k string) string { return keyPrefix + k }

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	b, err := c.rdb.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores val under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, Key(key), val, c.ttl).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
