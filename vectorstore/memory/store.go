// Package memory implements vectorstore.Gateway with an in-process cosine index.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/creastat/catalog/chunker"
	"github.com/creastat/catalog/embedding"
	"github.com/creastat/catalog/vectorstore"
)

// Store implements vectorstore.Gateway in memory.
type Store struct {
	mu         sync.RWMutex
	embedder   embedding.Embedder
	chunking   chunker.Options
	namespaces map[string]*namespace
	entryNS    map[string]string // entry ID -> namespace name
}

type namespace struct {
	dimension int
	entries   map[string]*entry
}

type entry struct {
	id     string
	key    string
	chunks []chunk
}

type chunk struct {
	text   string
	vector []float32
}

// New creates an empty in-memory gateway.
func New(embedder embedding.Embedder, chunking chunker.Options) *Store {
	return &Store{
		embedder:   embedder,
		chunking:   chunking,
		namespaces: make(map[string]*namespace),
		entryNS:    make(map[string]string),
	}
}

// GetNamespace implements vectorstore.Gateway.
func (s *Store) GetNamespace(ctx context.Context, name string) (*vectorstore.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[name]
	if !ok {
		return nil, nil
	}
	return &vectorstore.Namespace{Name: name, Dimension: ns.dimension}, nil
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

	e := &entry{
		id:     uuid.NewString(),
		key:    req.Key,
		chunks: make([]chunk, len(texts)),
	}
	for i := range texts {
		e.chunks[i] = chunk{text: texts[i], vector: vectors[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[req.Namespace]
	if !ok {
		ns = &namespace{
			dimension: s.embedder.Dimension(),
			entries:   make(map[string]*entry),
		}
		s.namespaces[req.Namespace] = ns
	}
	ns.entries[e.id] = e
	s.entryNS[e.id] = req.Namespace

	return e.id, nil
}

// Delete implements vectorstore.Gateway.
func (s *Store) Delete(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.entryNS[entryID]
	if !ok {
		return nil
	}
	delete(s.namespaces[name].entries, entryID)
	delete(s.entryNS, entryID)
	return nil
}

// Search implements vectorstore.Gateway.
func (s *Store) Search(ctx context.Context, req vectorstore.SearchRequest) (*vectorstore.SearchResponse, error) {
	query, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[req.Namespace]
	if !ok {
		return &vectorstore.SearchResponse{}, nil
	}

	type match struct {
		entry *entry
		order int
		score float32
	}

	var matches []match
	for _, e := range ns.entries {
		for i, c := range e.chunks {
			score := vectorstore.CosineSimilarity(query, c.vector)
			if score < req.ScoreThreshold {
				continue
			}
			matches = append(matches, match{entry: e, order: i, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].entry.id != matches[j].entry.id {
			return strings.Compare(matches[i].entry.id, matches[j].entry.id) < 0
		}
		return matches[i].order < matches[j].order
	})
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	resp := &vectorstore.SearchResponse{
		Results: make([]vectorstore.Hit, 0, len(matches)),
	}
	seen := make(map[string]bool)
	for _, m := range matches {
		start, end := vectorstore.ContextRange(m.order, len(m.entry.chunks), req.ChunkContext)

		hit := vectorstore.Hit{
			EntryID:    m.entry.id,
			Score:      m.score,
			Order:      m.order,
			StartOrder: start,
		}
		for i := start; i <= end; i++ {
			hit.Content = append(hit.Content, vectorstore.ChunkText{Text: m.entry.chunks[i].text})
		}
		resp.Results = append(resp.Results, hit)

		if !seen[m.entry.id] {
			seen[m.entry.id] = true
			resp.Entries = append(resp.Entries, vectorstore.Entry{EntryID: m.entry.id, Key: m.entry.key})
		}
	}
	resp.Text = vectorstore.ComposeText(resp.Results)

	return resp, nil
}

// Close implements vectorstore.Gateway.
func (s *Store) Close() error {
	return nil
}

// LiveEntries returns the number of entries stored under key in a namespace.
func (s *Store) LiveEntries(name, key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[name]
	if !ok {
		return 0
	}
	n := 0
	for _, e := range ns.entries {
		if e.key == key {
			n++
		}
	}
	return n
}

// Compile-time check that Store implements Gateway.
var _ vectorstore.Gateway = (*Store)(nil)
