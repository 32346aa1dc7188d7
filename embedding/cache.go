package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/creastat/catalog"
)

// defaultCacheTTL is used when WithTTL is not given.
const defaultCacheTTL = 24 * time.Hour

// Cache stores vectors by key.
type Cache interface {
	// Get returns the cached vector, or nil if the key is not cached (not an error).
	Get(ctx context.Context, key string) ([]float32, error)

	// Set stores a vector under key.
	Set(ctx context.Context, key string, vector []float32) error

	// Close releases any resources held by the cache.
	Close() error
}

// CacheType represents the type of embedding cache.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// NewCache creates a Cache of the given type.
// For Redis, requires WithRedisClient option.
func NewCache(cacheType CacheType, opts ...CacheOption) (Cache, error) {
	config := newCacheConfig(opts)

	switch cacheType {
	case CacheTypeMemory:
		return newMemoryCache(config.ttl), nil

	case CacheTypeRedis:
		if config.redisClient == nil {
			return nil, fmt.Errorf("%w: redis cache requires a client", catalog.ErrInvalidConfig)
		}
		return NewRedisCache(config.redisClient, config.ttl), nil

	default:
		return nil, fmt.Errorf("%w: unknown cache type %q", catalog.ErrInvalidConfig, cacheType)
	}
}

func newCacheConfig(opts []CacheOption) *cacheConfig {
	config := &cacheConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.ttl <= 0 {
		config.ttl = defaultCacheTTL
	}
	if config.logger == nil {
		config.logger = slog.Default()
	}
	return config
}

// CachedEmbedder serves repeated texts from a Cache.
// Cache failures are logged and fall through to the wrapped Embedder.
type CachedEmbedder struct {
	next   Embedder
	cache  Cache
	logger *slog.Logger
}

// NewCachedEmbedder wraps next with cache.
func NewCachedEmbedder(next Embedder, cache Cache, opts ...CacheOption) *CachedEmbedder {
	config := newCacheConfig(opts)
	return &CachedEmbedder{
		next:   next,
		cache:  cache,
		logger: config.logger,
	}
}

// Embed implements Embedder.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)

	if vector := e.lookup(ctx, key); vector != nil {
		return vector, nil
	}

	vector, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.store(ctx, key, vector)
	return vector, nil
}

// EmbedBatch implements Embedder. Only cache misses reach the wrapped Embedder.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		keys[i] = e.key(text)
		if vector := e.lookup(ctx, keys[i]); vector != nil {
			vectors[i] = vector
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	embedded, err := e.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missing))
	}

	for j, idx := range missingIdx {
		vectors[idx] = embedded[j]
		e.store(ctx, keys[idx], embedded[j])
	}
	return vectors, nil
}

// Dimension implements Embedder.
func (e *CachedEmbedder) Dimension() int {
	return e.next.Dimension()
}

// Model implements Embedder.
func (e *CachedEmbedder) Model() string {
	return e.next.Model()
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.next.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (e *CachedEmbedder) lookup(ctx context.Context, key string) []float32 {
	vector, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("embedding cache read failed", "error", err)
		return nil
	}
	return vector
}

func (e *CachedEmbedder) store(ctx context.Context, key string, vector []float32) {
	if err := e.cache.Set(ctx, key, vector); err != nil {
		e.logger.Warn("embedding cache write failed", "error", err)
	}
}

// memoryCache implements Cache using an in-memory map with expiry.
type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	vectors map[string]memoryEntry
}

type memoryEntry struct {
	vector    []float32
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		ttl:     ttl,
		vectors: make(map[string]memoryEntry),
	}
}

// Get implements Cache.
func (c *memoryCache) Get(ctx context.Context, key string) ([]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.vectors[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	return e.vector, nil
}

// Set implements Cache.
func (c *memoryCache) Set(ctx context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vectors[key] = memoryEntry{
		vector:    vector,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Close implements Cache.
func (c *memoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vectors = make(map[string]memoryEntry)
	return nil
}

// Compile-time checks
var (
	_ Embedder = (*CachedEmbedder)(nil)
	_ Cache    = (*memoryCache)(nil)
)
