package embedding

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheOption is a functional option for configuring an embedding cache.
type CacheOption func(*cacheConfig)

// cacheConfig holds configuration for embedding caches.
type cacheConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *slog.Logger
}

// WithRedisClient sets the Redis client for the Redis cache.
func WithRedisClient(client *redis.Client) CacheOption {
	return func(c *cacheConfig) {
		c.redisClient = client
	}
}

// WithTTL sets how long cached vectors live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger used by CachedEmbedder for swallowed cache failures.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *cacheConfig) {
		c.logger = logger
	}
}
