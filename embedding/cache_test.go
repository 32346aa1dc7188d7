package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog"
)

// countingEmbedder records every text it is asked to embed.
type countingEmbedder struct {
	model string
	seen  []string
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		e.seen = append(e.seen, text)
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (e *countingEmbedder) Dimension() int { return 2 }
func (e *countingEmbedder) Model() string  { return e.model }

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) ([]float32, error) {
	return nil, errors.New("cache down")
}

func (brokenCache) Set(ctx context.Context, key string, vector []float32) error {
	return errors.New("cache down")
}

func (brokenCache) Close() error { return nil }

func TestNewCache(t *testing.T) {
	c, err := NewCache(CacheTypeMemory)
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = NewCache(CacheTypeRedis)
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)

	_, err = NewCache("disk")
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)

	c, err = NewCache(CacheTypeRedis, WithRedisClient(redis.NewClient(&redis.Options{Addr: "localhost:6379"})))
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)
	assert.NoError(t, c.Close())
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(time.Minute)

	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "k", []float32{1, 2}))
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	c.vectors["k"] = memoryEntry{vector: []float32{1, 2}, expiresAt: time.Now().Add(-time.Second)}
	v, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCachedEmbedder_Embed(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{model: "m1"}
	e := NewCachedEmbedder(next, newMemoryCache(time.Minute))

	first, err := e.Embed(ctx, "lamp")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "lamp")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"lamp"}, next.seen)
	assert.Equal(t, 2, e.Dimension())
	assert.Equal(t, "m1", e.Model())
}

func TestCachedEmbedder_EmbedBatchOnlyMisses(t *testing.T) {
	ctx := context.Background()
	next := &countingEmbedder{model: "m1"}
	e := NewCachedEmbedder(next, newMemoryCache(time.Minute))

	_, err := e.Embed(ctx, "b")
	require.NoError(t, err)

	vectors, err := e.EmbedBatch(ctx, []string{"a", "b", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{1, 1}, vectors[1])
	assert.Equal(t, []float32{3, 1}, vectors[2])

	assert.Equal(t, []string{"b", "a", "ccc"}, next.seen)
}

func TestCachedEmbedder_KeyIncludesModel(t *testing.T) {
	cache := newMemoryCache(time.Minute)
	a := NewCachedEmbedder(&countingEmbedder{model: "m1"}, cache)
	b := NewCachedEmbedder(&countingEmbedder{model: "m2"}, cache)

	assert.NotEqual(t, a.key("lamp"), b.key("lamp"))
	assert.Equal(t, a.key("lamp"), a.key("lamp"))
}

func TestCachedEmbedder_CacheFailureFallsThrough(t *testing.T) {
	next := &countingEmbedder{model: "m1"}
	e := NewCachedEmbedder(next, brokenCache{})

	v, err := e.Embed(context.Background(), "lamp")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, v)
}

func TestCachedEmbedder_EmbedderErrorPropagates(t *testing.T) {
	e := NewCachedEmbedder(&countingEmbedder{err: errors.New("quota")}, newMemoryCache(time.Minute))

	_, err := e.EmbedBatch(context.Background(), []string{"lamp"})
	assert.EqualError(t, err, "quota")
}

func TestRedisCache_Key(t *testing.T) {
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), 0)
	defer c.Close()

	assert.Equal(t, "embedding:abc", c.key("abc"))
	assert.Equal(t, defaultCacheTTL, c.ttl)
}
