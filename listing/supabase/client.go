package supabase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/listing"
)

const defaultTable = "listings"

// Config holds Supabase connection configuration
type Config struct {
	URL    string
	APIKey string

	// Table is the listings table name. Default: "listings"
	Table string

	// CacheTTL enables read caching of single listings when positive.
	// Search resolution must see live status, so keep it short or disabled.
	CacheTTL time.Duration
}

// Client implements listing.Store using Supabase
type Client struct {
	client   *supabase.Client
	table    string
	cache    *cache
	cacheTTL time.Duration
}

// cache provides thread-safe caching for listings fetched by ID
type cache struct {
	mu   sync.RWMutex
	byID map[string]*cacheEntry[listing.Listing]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a new Supabase listing store
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase URL is required", catalog.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: supabase API key is required", catalog.ErrInvalidConfig)
	}
	if cfg.Table == "" {
		cfg.Table = defaultTable
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		table:    cfg.Table,
		cacheTTL: cfg.CacheTTL,
		cache: &cache{
			byID: make(map[string]*cacheEntry[listing.Listing]),
		},
	}, nil
}

// Get retrieves a listing by ID
func (c *Client) Get(ctx context.Context, id string) (*listing.Listing, error) {
	if cached, ok := c.getFromCache(id); ok {
		return &cached, nil
	}

	var listings []listing.Listing
	_, err := c.client.From(c.table).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&listings)

	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if len(listings) == 0 {
		return nil, nil
	}

	l := listings[0]
	c.addToCache(l)

	return &l, nil
}

// GetMany retrieves multiple listings by their IDs
func (c *Client) GetMany(ctx context.Context, ids []string) ([]listing.Listing, error) {
	if len(ids) == 0 {
		return []listing.Listing{}, nil
	}

	var listings []listing.Listing
	_, err := c.client.From(c.table).
		Select("*", "", false).
		In("id", ids).
		ExecuteTo(&listings)

	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}

	return listings, nil
}

// List retrieves listings matching the filter, oldest first
func (c *Client) List(ctx context.Context, filter listing.Filter) ([]listing.Listing, error) {
	query := c.client.From(c.table).Select("*", "", false)

	if filter.Status != "" {
		query = query.Eq("status", string(filter.Status))
	}
	if filter.Category != "" {
		query = query.Eq("category", filter.Category)
	}

	query = query.Order("created_at", &postgrest.OrderOpts{Ascending: true})
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit, "")
	}

	var listings []listing.Listing
	if _, err := query.ExecuteTo(&listings); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, nil
}

// Patch updates the non-nil fields of a listing
func (c *Client) Patch(ctx context.Context, id string, patch listing.Patch) error {
	body := patchBody(patch, time.Now().UTC())

	var updated []listing.Listing
	_, err := c.client.From(c.table).
		Update(body, "representation", "").
		Eq("id", id).
		ExecuteTo(&updated)

	// The row may have changed even if the response was lost
	c.invalidate(id)

	if err != nil {
		return fmt.Errorf("failed to patch listing: %w", err)
	}

	if len(updated) == 0 {
		return catalog.ErrNotFound
	}

	return nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// patchBody converts a Patch into the PostgREST update document.
func patchBody(patch listing.Patch, now time.Time) map[string]any {
	body := map[string]any{
		"updated_at": now,
	}
	if patch.Status != nil {
		body["status"] = string(*patch.Status)
	}
	if patch.EmbeddingID != nil {
		if *patch.EmbeddingID == "" {
			body["embedding_id"] = nil
		} else {
			body["embedding_id"] = *patch.EmbeddingID
		}
	}
	return body
}

// getFromCache retrieves a listing from cache by ID
func (c *Client) getFromCache(id string) (listing.Listing, bool) {
	if c.cacheTTL <= 0 {
		return listing.Listing{}, false
	}

	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e, ok := c.cache.byID[id]; ok {
		if time.Now().Before(e.expiresAt) {
			return e.value, true
		}
	}
	return listing.Listing{}, false
}

// addToCache adds a listing to cache
func (c *Client) addToCache(l listing.Listing) {
	if c.cacheTTL <= 0 {
		return
	}

	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byID[l.ID] = &cacheEntry[listing.Listing]{
		value:     l,
		expiresAt: time.Now().Add(c.cacheTTL),
	}
}

// invalidate drops a cached listing
func (c *Client) invalidate(id string) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	delete(c.cache.byID, id)
}

// Compile-time check that Client implements listing.Store
var _ listing.Store = (*Client)(nil)
