package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creastat/catalog"
)

// MemoryStore implements Store using an in-memory map.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*Listing
}

// NewMemoryStore creates a new in-memory listing store seeded with the given listings.
func NewMemoryStore(seed ...Listing) *MemoryStore {
	s := &MemoryStore{
		listings: make(map[string]*Listing, len(seed)),
	}
	for _, l := range seed {
		s.Put(l)
	}
	return s
}

// Put inserts or replaces a listing.
func (s *MemoryStore) Put(l Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	s.listings[l.ID] = cloneListing(&l)
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.listings[id]
	if !exists {
		return nil, nil
	}
	return cloneListing(l), nil
}

// GetMany implements Store.
func (s *MemoryStore) GetMany(ctx context.Context, ids []string) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listings := make([]Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.listings[id]; ok {
			listings = append(listings, *cloneListing(l))
		}
	}
	return listings, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listings := make([]Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		listings = append(listings, *cloneListing(l))
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ID < listings[j].ID
		}
		return listings[i].CreatedAt.Before(listings[j].CreatedAt)
	})

	if filter.Limit > 0 && len(listings) > filter.Limit {
		listings = listings[:filter.Limit]
	}
	return listings, nil
}

// Patch implements Store.
func (s *MemoryStore) Patch(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, exists := s.listings[id]
	if !exists {
		return catalog.ErrNotFound
	}

	if patch.Status != nil {
		l.Status = *patch.Status
	}
	if patch.EmbeddingID != nil {
		if *patch.EmbeddingID == "" {
			l.EmbeddingID = nil
		} else {
			handle := *patch.EmbeddingID
			l.EmbeddingID = &handle
		}
	}
	l.UpdatedAt = time.Now()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneListing(l *Listing) *Listing {
	c := *l
	if l.EmbeddingID != nil {
		handle := *l.EmbeddingID
		c.EmbeddingID = &handle
	}
	return &c
}

// Compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
