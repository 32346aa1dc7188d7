package listing

import (
	"context"
	"time"
)

// Store provides access to marketplace listings for indexing and search.
type Store interface {
	// Get retrieves a listing by ID.
	// Returns nil if the listing is not found (not an error).
	Get(ctx context.Context, id string) (*Listing, error)

	// GetMany retrieves the listings with the given IDs. Unknown IDs are omitted.
	GetMany(ctx context.Context, ids []string) ([]Listing, error)

	// List returns listings matching the filter, oldest first.
	List(ctx context.Context, filter Filter) ([]Listing, error)

	// Patch updates the non-nil fields of a listing.
	// Returns catalog.ErrNotFound if the listing does not exist.
	Patch(ctx context.Context, id string, patch Patch) error

	// Close releases any resources held by the store.
	Close() error
}

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSold, StatusArchived:
		return true
	}
	return false
}

// Listing represents a marketplace listing from the database.
type Listing struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Status      Status    `json:"status"`
	EmbeddingID *string   `json:"embedding_id,omitempty"` // current vector entry, nil when not indexed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Active reports whether the listing is eligible for indexing and search.
func (l *Listing) Active() bool {
	return l != nil && l.Status == StatusActive
}

// Handle returns the listing's embedding handle, or "" when it has none.
func (l *Listing) Handle() string {
	if l == nil || l.EmbeddingID == nil {
		return ""
	}
	return *l.EmbeddingID
}

// Filter selects listings for List.
type Filter struct {
	// Status restricts results to one lifecycle state. Empty matches all.
	Status Status

	// Category restricts results to one category. Empty matches all.
	Category string

	// Limit caps the number of results. Zero or negative means no limit.
	Limit int
}

// Patch describes a partial listing update. Nil fields are left untouched.
type Patch struct {
	Status *Status

	// EmbeddingID replaces the embedding handle. A pointer to "" clears it.
	EmbeddingID *string
}

// SetEmbedding returns a Patch that stores handle as the listing's embedding handle.
func SetEmbedding(handle string) Patch {
	return Patch{EmbeddingID: &handle}
}

// ClearEmbedding returns a Patch that removes the listing's embedding handle.
func ClearEmbedding() Patch {
	empty := ""
	return Patch{EmbeddingID: &empty}
}
