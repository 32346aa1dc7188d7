package supabase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/listing"
)

func TestNew_RequiresURLAndKey(t *testing.T) {
	_, err := New(Config{APIKey: "key"})
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)

	_, err = New(Config{URL: "https://example.supabase.co"})
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)
}

func TestPatchBody(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	body := patchBody(listing.SetEmbedding("e1"), now)
	assert.Equal(t, map[string]any{"updated_at": now, "embedding_id": "e1"}, body)

	body = patchBody(listing.ClearEmbedding(), now)
	require.Contains(t, body, "embedding_id")
	assert.Nil(t, body["embedding_id"])

	sold := listing.StatusSold
	body = patchBody(listing.Patch{Status: &sold}, now)
	assert.Equal(t, "sold", body["status"])
	assert.NotContains(t, body, "embedding_id")
}

func TestCacheDisabledByDefault(t *testing.T) {
	c := &Client{cache: &cache{byID: make(map[string]*cacheEntry[listing.Listing])}}

	c.addToCache(listing.Listing{ID: "l1"})
	_, ok := c.getFromCache("l1")
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	c := &Client{
		cacheTTL: time.Minute,
		cache:    &cache{byID: make(map[string]*cacheEntry[listing.Listing])},
	}

	c.addToCache(listing.Listing{ID: "l1", Title: "Lamp"})
	l, ok := c.getFromCache("l1")
	require.True(t, ok)
	assert.Equal(t, "Lamp", l.Title)

	c.invalidate("l1")
	_, ok = c.getFromCache("l1")
	assert.False(t, ok)
}
