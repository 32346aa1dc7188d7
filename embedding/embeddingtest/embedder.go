// Package embeddingtest provides a deterministic embedder for tests.
package embeddingtest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/creastat/catalog/embedding"
)

// Dimension is the vector size produced by Embedder.
const Dimension = 256

// ErrEmbed is returned for texts rejected by Embedder.Fail.
var ErrEmbed = errors.New("embedding failed")

// Embedder maps each word stem to its own dimension, so cosine similarity reflects
// shared vocabulary. Words are lowercased and cut to their first four letters, which
// makes "book" and "books" the same stem.
type Embedder struct {
	// Fail, when set, makes any text it returns true for fail with ErrEmbed.
	Fail func(text string) bool

	mu    sync.Mutex
	vocab map[string]int
	calls int
}

// New creates an Embedder.
func New() *Embedder {
	return &Embedder{vocab: make(map[string]int)}
}

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements embedding.Embedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if e.Fail != nil && e.Fail(text) {
			return nil, ErrEmbed
		}
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

// Dimension implements embedding.Embedder.
func (e *Embedder) Dimension() int {
	return Dimension
}

// Model implements embedding.Embedder.
func (e *Embedder) Model() string {
	return "stem-test"
}

// Calls returns how many times EmbedBatch ran.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, Dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		stem := []rune(w)
		if len(stem) > 4 {
			stem = stem[:4]
		}
		idx, ok := e.vocab[string(stem)]
		if !ok {
			idx = len(e.vocab) % Dimension
			e.vocab[string(stem)] = idx
		}
		v[idx]++
	}
	return v
}

var _ embedding.Embedder = (*Embedder)(nil)
