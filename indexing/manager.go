// Package indexing keeps each active listing in sync with exactly one vector index entry.
package indexing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/listing"
	"github.com/creastat/catalog/vectorstore"
)

// DefaultNamespace is the global namespace holding every product embedding.
const DefaultNamespace = "products"

// Manager maintains listing embeddings.
//
// Within Embed the previous entry is always deleted before the new one is added, so under
// normal operation a listing never has two live entries. A crash in between leaves the
// listing unindexed until the next Embed.
type Manager struct {
	store     listing.Store
	gateway   vectorstore.Gateway
	namespace string
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(namespace string) ManagerOption {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithLogger sets the Manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager.
func NewManager(store listing.Store, gateway vectorstore.Gateway, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		gateway:   gateway,
		namespace: DefaultNamespace,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Namespace returns the namespace embeddings are written to.
func (m *Manager) Namespace() string {
	return m.namespace
}

// Embed (re)creates the embedding of an active listing.
//
// Missing and non-active listings are a no-op. Failure to delete the previous entry is
// logged and ignored; failure to create the new entry is returned.
func (m *Manager) Embed(ctx context.Context, listingID string) error {
	l, err := m.store.Get(ctx, listingID)
	if err != nil {
		return fmt.Errorf("failed to load listing %s: %w", listingID, err)
	}
	if err := eligible(l); err != nil {
		m.logger.Debug("skipping embed", "listing_id", listingID, "reason", err)
		return nil
	}

	old := l.Handle()
	if old != "" {
		m.deleteEntry(ctx, listingID, old)
	}

	entryID, err := m.gateway.Add(ctx, vectorstore.AddRequest{
		Namespace: m.namespace,
		Key:       l.ID,
		Text:      CanonicalText(l),
	})
	if err != nil {
		if old != "" {
			m.clearHandle(ctx, listingID)
		}
		return fmt.Errorf("failed to add embedding for listing %s: %w", listingID, err)
	}

	if err := m.store.Patch(ctx, l.ID, listing.SetEmbedding(entryID)); err != nil {
		// An entry no listing points at would never be deleted
		m.deleteEntry(ctx, listingID, entryID)
		return fmt.Errorf("failed to save embedding handle for listing %s: %w", listingID, err)
	}

	m.logger.Debug("embedded listing", "listing_id", listingID, "entry_id", entryID)
	return nil
}

// Unembed deletes an embedding entry. An empty handle is a no-op.
// Deletion is best-effort: failures are logged, never returned.
func (m *Manager) Unembed(ctx context.Context, listingID, handle string) error {
	if handle == "" {
		return nil
	}
	m.deleteEntry(ctx, listingID, handle)
	return nil
}

// Sync reconciles a listing's embedding with its current state after a write.
// Active listings are (re)embedded; other listings lose their embedding and handle.
func (m *Manager) Sync(ctx context.Context, listingID string) error {
	l, err := m.store.Get(ctx, listingID)
	if err != nil {
		return fmt.Errorf("failed to load listing %s: %w", listingID, err)
	}
	if l == nil {
		return nil
	}

	if l.Active() {
		return m.Embed(ctx, listingID)
	}

	handle := l.Handle()
	if handle == "" {
		return nil
	}

	if err := m.Unembed(ctx, listingID, handle); err != nil {
		return err
	}
	if err := m.store.Patch(ctx, listingID, listing.ClearEmbedding()); err != nil {
		return fmt.Errorf("failed to clear embedding handle for listing %s: %w", listingID, err)
	}

	m.logger.Debug("removed embedding of inactive listing", "listing_id", listingID, "status", l.Status)
	return nil
}

// BackfillResult counts the outcome of a Backfill.
type BackfillResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// Backfill embeds up to limit active listings, one at a time.
// Per-listing failures are counted and logged; only failing to list returns an error.
func (m *Manager) Backfill(ctx context.Context, limit int) (BackfillResult, error) {
	var result BackfillResult

	listings, err := m.store.List(ctx, listing.Filter{
		Status: listing.StatusActive,
		Limit:  limit,
	})
	if err != nil {
		return result, fmt.Errorf("failed to list active listings: %w", err)
	}

	m.logger.Info("starting embedding backfill", "listings", len(listings), "namespace", m.namespace)

	for _, l := range listings {
		if err := m.Embed(ctx, l.ID); err != nil {
			result.Errors++
			m.logger.Warn("failed to embed listing", "listing_id", l.ID, "error", err)
			continue
		}
		result.Processed++
	}

	m.logger.Info("completed embedding backfill",
		"processed", result.Processed,
		"errors", result.Errors,
	)

	return result, nil
}

// eligible returns catalog.ErrNotFound or catalog.ErrIneligible for listings that must not be indexed.
func eligible(l *listing.Listing) error {
	if l == nil {
		return catalog.ErrNotFound
	}
	if !l.Active() {
		return fmt.Errorf("%w: status %s", catalog.ErrIneligible, l.Status)
	}
	return nil
}

func (m *Manager) deleteEntry(ctx context.Context, listingID, entryID string) {
	if err := m.gateway.Delete(ctx, entryID); err != nil {
		m.logger.Warn("failed to delete embedding entry",
			"listing_id", listingID,
			"entry_id", entryID,
			"error", err,
		)
	}
}

// clearHandle drops a handle whose entry was already deleted. The next Embed repairs
// the listing either way, so failures are only logged.
func (m *Manager) clearHandle(ctx context.Context, listingID string) {
	if err := m.store.Patch(ctx, listingID, listing.ClearEmbedding()); err != nil {
		m.logger.Warn("failed to clear stale embedding handle", "listing_id", listingID, "error", err)
	}
}
