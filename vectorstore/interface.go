// Package vectorstore defines the vector index gateway used to embed and search listing text.
// Implementations can use Qdrant, Postgres pgvector, or an in-process index.
package vectorstore

import "context"

// Gateway is a technology-agnostic interface over a namespaced, text-keyed vector index.
type Gateway interface {
	// GetNamespace returns the namespace, or nil if nothing was ever added to it (not an error).
	GetNamespace(ctx context.Context, name string) (*Namespace, error)

	// Add chunks and embeds text as a new entry, creating the namespace on first use.
	// Returns the opaque entry ID.
	Add(ctx context.Context, req AddRequest) (string, error)

	// Delete removes an entry and all its chunks. Deleting an unknown entry is not an error.
	Delete(ctx context.Context, entryID string) error

	// Search performs vector similarity search for a free-text query.
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)

	// Close releases any resources held by the gateway.
	Close() error
}

// Namespace groups entries that are searched together.
type Namespace struct {
	Name      string
	Dimension int
}

// AddRequest describes a new entry.
type AddRequest struct {
	// Namespace receives the entry.
	Namespace string

	// Key identifies the owner of the entry (the listing ID).
	Key string

	// Text is chunked and embedded.
	Text string
}

// ChunkContext asks Search to return neighbouring chunks around each match.
type ChunkContext struct {
	Before int
	After  int
}

// SearchRequest defines a similarity query.
type SearchRequest struct {
	Namespace string
	Query     string

	// Limit caps the number of matched chunks.
	Limit int

	// ScoreThreshold drops chunks below this similarity (0 = unrelated, 1 = identical).
	ScoreThreshold float32

	// ChunkContext is optional; zero returns only matched chunks.
	ChunkContext ChunkContext
}

// SearchResponse holds matched chunks ordered by score, descending.
type SearchResponse struct {
	Results []Hit

	// Entries lists every entry referenced by Results.
	Entries []Entry

	// Text is the aggregated prose of Results, see ComposeText.
	Text string
}

// Hit is a single matched chunk.
type Hit struct {
	EntryID string
	Score   float32

	// Order is the matched chunk's position within its entry.
	Order int

	// StartOrder is the position of Content[0].
	StartOrder int

	// Content holds the matched chunk and any requested neighbours, in position order.
	Content []ChunkText
}

// ChunkText is the text of one chunk.
type ChunkText struct {
	Text string
}

// Snippet returns the text of the matched chunk.
func (h Hit) Snippet() string {
	i := h.Order - h.StartOrder
	if i < 0 || i >= len(h.Content) {
		if len(h.Content) > 0 {
			return h.Content[0].Text
		}
		return ""
	}
	return h.Content[i].Text
}

// Entry maps an entry ID to the key it was added under.
type Entry struct {
	EntryID string
	Key     string
}
