package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for cached vectors
	embeddingKeyPrefix = "embedding:"
)

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-based embedding cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// Get implements Cache.
// Returns nil if the key is not cached (not an error).
// Refreshes TTL on every hit.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, error) {
	k := c.key(key)
	val, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var vector []float32
	if err := json.Unmarshal(val, &vector); err != nil {
		return nil, err
	}

	// TTL refresh is best-effort
	_ = c.client.Expire(ctx, k, c.ttl).Err()

	return vector, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, vector []float32) error {
	val, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), val, c.ttl).Err()
}

// Close implements Cache.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// key constructs the Redis key for a cache key.
func (c *RedisCache) key(key string) string {
	return embeddingKeyPrefix + key
}

var _ Cache = (*RedisCache)(nil)
