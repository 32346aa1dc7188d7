// Package app exposes the catalog's embedding and search operations.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/indexing"
	"github.com/creastat/catalog/search"
)

// Service composes the embedding lifecycle manager and the search engine.
type Service struct {
	manager *indexing.Manager
	engine  *search.Engine
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the Service's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service.
func NewService(manager *indexing.Manager, engine *search.Engine, opts ...Option) *Service {
	s := &Service{
		manager: manager,
		engine:  engine,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// EmbedListing (re)creates the embedding of an active listing.
func (s *Service) EmbedListing(ctx context.Context, listingID string) error {
	return s.manager.Embed(ctx, listingID)
}

// RemoveListingEmbedding deletes an embedding entry. An empty handle is a no-op.
func (s *Service) RemoveListingEmbedding(ctx context.Context, listingID, handle string) error {
	return s.manager.Unembed(ctx, listingID, handle)
}

// SyncListing reconciles a listing's embedding after a create, update, or status change.
func (s *Service) SyncListing(ctx context.Context, listingID string) error {
	return s.manager.Sync(ctx, listingID)
}

// BackfillEmbeddings embeds up to limit active listings.
func (s *Service) BackfillEmbeddings(ctx context.Context, limit int) (indexing.BackfillResult, error) {
	if limit < 0 {
		return indexing.BackfillResult{}, fmt.Errorf("%w: limit must not be negative", catalog.ErrInvalidQuery)
	}
	return s.manager.Backfill(ctx, limit)
}

// SearchProducts returns the listings best matching query.
func (s *Service) SearchProducts(ctx context.Context, query string, limit int) (*search.ProductResponse, error) {
	if err := validate(query, limit); err != nil {
		return nil, err
	}

	matches, err := s.engine.Search(ctx, search.Query{Text: query, Limit: limit})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product search", "query_len", len(query), "results", len(matches))
	return search.FormatProducts(matches), nil
}

// SearchListingsRAG returns the listings best matching query with the aggregated text around
// their matching chunks. A nil scoreThreshold uses the default.
func (s *Service) SearchListingsRAG(ctx context.Context, query string, limit int, scoreThreshold *float32) (*search.RAGResponse, error) {
	if err := validate(query, limit); err != nil {
		return nil, err
	}
	if scoreThreshold != nil && (*scoreThreshold < 0 || *scoreThreshold > 1) {
		return nil, fmt.Errorf("%w: score threshold must be between 0 and 1", catalog.ErrInvalidQuery)
	}

	result, err := s.engine.SearchWithContext(ctx, search.Query{
		Text:           query,
		Limit:          limit,
		ScoreThreshold: scoreThreshold,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rag search", "query_len", len(query), "results", len(result.Matches))
	return search.FormatRAG(result.Matches, result.Text), nil
}

func validate(query string, limit int) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", catalog.ErrInvalidQuery)
	}
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", catalog.ErrInvalidQuery)
	}
	return nil
}
