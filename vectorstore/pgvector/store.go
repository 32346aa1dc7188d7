// Package pgvector implements vectorstore.Gateway on Postgres with the pgvector extension.
// It works against a Supabase database as well as a plain Postgres server.
package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/chunker"
	"github.com/creastat/catalog/embedding"
	"github.com/creastat/catalog/vectorstore"
)

// Config holds Postgres connection configuration.
type Config struct {
	// DSN is a libpq connection string or URL.
	DSN string

	// Chunking controls how entry text is split before embedding.
	Chunking chunker.Options
}

// Store implements vectorstore.Gateway backed by pgvector.
type Store struct {
	pool     *pgxpool.Pool
	embedder embedding.Embedder
	chunking chunker.Options
}

// New connects to Postgres and creates the gateway tables if needed.
func New(ctx context.Context, cfg Config, embedder embedding.Embedder) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", catalog.ErrInvalidConfig)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate vector tables: %w", err)
	}

	return &Store{
		pool:     pool,
		embedder: embedder,
		chunking: cfg.Chunking,
	}, nil
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS vector_namespaces (
	name       TEXT PRIMARY KEY,
	dimension  INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vector_entries (
	id         UUID PRIMARY KEY,
	namespace  TEXT NOT NULL REFERENCES vector_namespaces(name),
	key        TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS vector_entries_namespace_key_idx ON vector_entries (namespace, key);

CREATE TABLE IF NOT EXISTS vector_chunks (
	entry_id  UUID NOT NULL REFERENCES vector_entries(id) ON DELETE CASCADE,
	ordinal   INT NOT NULL,
	content   TEXT NOT NULL,
	embedding vector NOT NULL,
	PRIMARY KEY (entry_id, ordinal)
);`

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// GetNamespace implements vectorstore.Gateway.
func (s *Store) GetNamespace(ctx context.Context, name string) (*vectorstore.Namespace, error) {
	var dimension int
	err := s.pool.QueryRow(ctx, `SELECT dimension FROM vector_namespaces WHERE name = $1`, name).Scan(&dimension)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get namespace: %w", err)
	}
	return &vectorstore.Namespace{Name: name, Dimension: dimension}, nil
}

// Add implements vectorstore.Gateway.
func (s *Store) Add(ctx context.Context, req vectorstore.AddRequest) (string, error) {
	texts := chunker.Split(req.Text, s.chunking)
	if len(texts) == 0 {
		return "", fmt.Errorf("entry text is empty")
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("failed to embed entry: %w", err)
	}

	entryID := uuid.NewString()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO vector_namespaces (name, dimension) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		req.Namespace, s.embedder.Dimension(),
	); err != nil {
		return "", fmt.Errorf("failed to create namespace: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO vector_entries (id, namespace, key) VALUES ($1::uuid, $2, $3)`,
		entryID, req.Namespace, req.Key,
	); err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}

	batch := &pgx.Batch{}
	for i, text := range texts {
		batch.Queue(
			`INSERT INTO vector_chunks (entry_id, ordinal, content, embedding) VALUES ($1::uuid, $2, $3, $4::vector)`,
			entryID, i, text, pgvector.NewVector(vectors[i]),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit entry: %w", err)
	}

	return entryID, nil
}

// Delete implements vectorstore.Gateway.
func (s *Store) Delete(ctx context.Context, entryID string) error {
	if _, err := uuid.Parse(entryID); err != nil {
		// Not an ID this gateway could have issued
		return nil
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM vector_entries WHERE id = $1::uuid`, entryID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

const searchQuery = `
SELECT c.entry_id::text, e.key, c.ordinal, c.content, 1 - (c.embedding <=> $2::vector) AS score
FROM vector_chunks c
JOIN vector_entries e ON e.id = c.entry_id
WHERE e.namespace = $1
  AND 1 - (c.embedding <=> $2::vector) >= $3
ORDER BY c.embedding <=> $2::vector
LIMIT $4`

// Search implements vectorstore.Gateway.
func (s *Store) Search(ctx context.Context, req vectorstore.SearchRequest) (*vectorstore.SearchResponse, error) {
	vector, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.pool.Query(ctx, searchQuery,
		req.Namespace, pgvector.NewVector(vector), float64(req.ScoreThreshold), max(req.Limit, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	type row struct {
		entryID string
		key     string
		ordinal int
		content string
		score   float64
	}

	var matched []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.entryID, &r.key, &r.ordinal, &r.content, &r.score); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		matched = append(matched, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	resp := &vectorstore.SearchResponse{
		Results: make([]vectorstore.Hit, 0, len(matched)),
	}
	seen := make(map[string]bool)

	for _, r := range matched {
		entryID := r.entryID
		hit := vectorstore.Hit{
			EntryID:    entryID,
			Score:      float32(r.score),
			Order:      r.ordinal,
			StartOrder: r.ordinal,
			Content:    []vectorstore.ChunkText{{Text: r.content}},
		}

		if req.ChunkContext.Before > 0 || req.ChunkContext.After > 0 {
			if err := s.withContext(ctx, &hit, req.ChunkContext); err != nil {
				return nil, err
			}
		}
		resp.Results = append(resp.Results, hit)

		if !seen[entryID] {
			seen[entryID] = true
			resp.Entries = append(resp.Entries, vectorstore.Entry{EntryID: entryID, Key: r.key})
		}
	}
	resp.Text = vectorstore.ComposeText(resp.Results)

	return resp, nil
}

// withContext replaces the hit's content with the chunks around it.
// Ordinals are dense per entry, so the range is contiguous.
func (s *Store) withContext(ctx context.Context, hit *vectorstore.Hit, cc vectorstore.ChunkContext) error {
	start, end := vectorstore.ContextRange(hit.Order, 0, cc)

	rows, err := s.pool.Query(ctx,
		`SELECT ordinal, content FROM vector_chunks WHERE entry_id = $1::uuid AND ordinal BETWEEN $2 AND $3 ORDER BY ordinal`,
		hit.EntryID, start, end,
	)
	if err != nil {
		return fmt.Errorf("failed to get context chunks: %w", err)
	}
	defer rows.Close()

	var content []vectorstore.ChunkText
	first := -1
	for rows.Next() {
		var ordinal int
		var text string
		if err := rows.Scan(&ordinal, &text); err != nil {
			return fmt.Errorf("failed to scan context chunk: %w", err)
		}
		if first < 0 {
			first = ordinal
		}
		content = append(content, vectorstore.ChunkText{Text: text})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate context chunks: %w", err)
	}

	if len(content) > 0 {
		hit.StartOrder = first
		hit.Content = content
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Compile-time check that Store implements Gateway.
var _ vectorstore.Gateway = (*Store)(nil)
