package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueryTimeout bounds each Redis or MongoDB round trip so a slow
// store never stalls a query.
const DefaultQueryTimeout = 5 * time.Second

// RedisCache stores entries as plain Redis strings with a native TTL.
// The caller owns the redis.Client lifecycle; Close does not close it.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisCache returns a Cache backed by client. The prefix, when not
// empty, is joined to every key with a colon.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, timeout: DefaultQueryTimeout}
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a value in Redis. A zero ttl keeps the key until deleted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear deletes every query key under the cache's prefix, in all
// namespaces. Keys are found with SCAN and removed in batches.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	const batch = 100

	var (
		keys    []string
		removed int64
	)
	flush := func() error {
		if len(keys) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		removed += n
		keys = keys[:0]
		return nil
	}

	iter := c.client.Scan(ctx, 0, c.key("*query:*"), batch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == batch {
			if err := flush(); err != nil {
				return int(removed), err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return int(removed), fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return int(removed), err
	}
	return int(removed), nil
}

// Close does nothing; the client belongs to the caller.
func (c *RedisCache) Close() error {
	return nil
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
