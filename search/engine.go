// Package search turns free-text queries into ranked, deduplicated, active-only listings.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/chunker"
	"github.com/creastat/catalog/indexing"
	"github.com/creastat/catalog/listing"
	"github.com/creastat/catalog/vectorstore"
)

// Options tunes the search pipeline.
type Options struct {
	// Namespace is searched. Default: indexing.DefaultNamespace
	Namespace string

	// OverfetchFactor multiplies the limit when requesting chunks, since several chunks
	// may collapse into one listing. Default: 2
	OverfetchFactor int

	// ScoreThreshold is the minimum chunk similarity when a query sets none. Default: 0.3
	ScoreThreshold float32

	// DefaultLimit applies when a query sets no limit. Default: 10
	DefaultLimit int

	// MaxLimit caps any requested limit. Default: 50
	MaxLimit int

	// ChunkContext is the neighbour window used by SearchWithContext. Default: 1 before, 0 after
	ChunkContext vectorstore.ChunkContext

	// MaxContextTokens caps the aggregated text of SearchWithContext. Zero disables the cap.
	MaxContextTokens int
}

// DefaultOptions returns the default tuning.
func DefaultOptions() Options {
	return Options{
		Namespace:        indexing.DefaultNamespace,
		OverfetchFactor:  2,
		ScoreThreshold:   0.3,
		DefaultLimit:     10,
		MaxLimit:         50,
		ChunkContext:     vectorstore.ChunkContext{Before: 1, After: 0},
		MaxContextTokens: 2000,
	}
}

// Query is a search request.
type Query struct {
	Text string

	// Limit is the maximum number of listings. Zero uses the default.
	Limit int

	// ScoreThreshold overrides the default minimum similarity when set.
	ScoreThreshold *float32
}

// Result is the outcome of SearchWithContext.
type Result struct {
	Matches []Match
	Text    string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOptions replaces the default tuning. Zero fields keep their defaults.
func WithOptions(opts Options) EngineOption {
	return func(e *Engine) {
		d := DefaultOptions()
		if opts.Namespace == "" {
			opts.Namespace = d.Namespace
		}
		if opts.OverfetchFactor <= 0 {
			opts.OverfetchFactor = d.OverfetchFactor
		}
		if opts.ScoreThreshold <= 0 {
			opts.ScoreThreshold = d.ScoreThreshold
		}
		if opts.DefaultLimit <= 0 {
			opts.DefaultLimit = d.DefaultLimit
		}
		if opts.MaxLimit <= 0 {
			opts.MaxLimit = d.MaxLimit
		}
		if opts.MaxContextTokens < 0 {
			opts.MaxContextTokens = 0
		}
		e.opts = opts
	}
}

// WithLogger sets the Engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine executes searches against a vector index and resolves hits against the listing store.
type Engine struct {
	store   listing.Store
	gateway vectorstore.Gateway
	opts    Options
	logger  *slog.Logger
}

// NewEngine creates a new Engine.
func NewEngine(store listing.Store, gateway vectorstore.Gateway, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		gateway: gateway,
		opts:    DefaultOptions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Options returns the Engine's tuning.
func (e *Engine) Options() Options {
	return e.opts
}

// Search returns up to the query's limit of active listings, best match first.
// A missing namespace or no chunk above the threshold yields an empty result, not an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]Match, error) {
	matches, _, err := e.run(ctx, q, vectorstore.ChunkContext{})
	return matches, err
}

// SearchWithContext runs Search with the configured chunk-context window and also returns
// the aggregated text of the surviving listings.
func (e *Engine) SearchWithContext(ctx context.Context, q Query) (*Result, error) {
	matches, hits, err := e.run(ctx, q, e.opts.ChunkContext)
	if err != nil {
		return nil, err
	}

	text := vectorstore.ComposeText(hits)
	if e.opts.MaxContextTokens > 0 {
		text = chunker.TruncateTokens(text, e.opts.MaxContextTokens)
	}

	return &Result{Matches: matches, Text: text}, nil
}

// run executes the pipeline and returns the resolved matches with the hits that belong to them.
func (e *Engine) run(ctx context.Context, q Query, cc vectorstore.ChunkContext) ([]Match, []vectorstore.Hit, error) {
	limit := e.limit(q.Limit)
	threshold := e.opts.ScoreThreshold
	if q.ScoreThreshold != nil {
		threshold = *q.ScoreThreshold
	}

	ns, err := e.gateway.GetNamespace(ctx, e.opts.Namespace)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get namespace %s: %w", e.opts.Namespace, err)
	}
	if ns == nil {
		e.logger.Debug("search skipped", "namespace", e.opts.Namespace, "reason", catalog.ErrIndexUnavailable)
		return []Match{}, nil, nil
	}

	resp, err := e.gateway.Search(ctx, vectorstore.SearchRequest{
		Namespace:      e.opts.Namespace,
		Query:          q.Text,
		Limit:          limit * e.opts.OverfetchFactor,
		ScoreThreshold: threshold,
		ChunkContext:   cc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search namespace %s: %w", e.opts.Namespace, err)
	}

	owners := OwnerMap(resp.Entries)
	ranked := Dedupe(resp.Results, owners)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	matches, err := e.resolve(ctx, ranked)
	if err != nil {
		return nil, nil, err
	}

	live := make(map[string]bool, len(matches))
	for _, m := range matches {
		live[m.Listing.ID] = true
	}
	hits := make([]vectorstore.Hit, 0, len(resp.Results))
	for _, h := range resp.Results {
		if live[ownerOf(h.EntryID, owners)] {
			hits = append(hits, h)
		}
	}

	e.logger.Debug("search completed",
		"chunks", len(resp.Results),
		"listings", len(ranked),
		"results", len(matches),
	)

	return matches, hits, nil
}

// resolve loads ranked listings and drops any that are missing or no longer active.
func (e *Engine) resolve(ctx context.Context, ranked []Ranked) ([]Match, error) {
	matches := make([]Match, 0, len(ranked))
	if len(ranked) == 0 {
		return matches, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ListingID
	}

	listings, err := e.store.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve listings: %w", err)
	}

	byID := make(map[string]listing.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}

	for _, r := range ranked {
		l, ok := byID[r.ListingID]
		if !ok || !l.Active() {
			continue
		}
		matches = append(matches, Match{Listing: l, Score: r.Score, Snippet: r.Snippet})
	}

	return matches, nil
}

func (e *Engine) limit(requested int) int {
	if requested <= 0 {
		return e.opts.DefaultLimit
	}
	return min(requested, e.opts.MaxLimit)
}

func ownerOf(entryID string, owners map[string]string) string {
	if key, ok := owners[entryID]; ok {
		return key
	}
	return entryID
}
