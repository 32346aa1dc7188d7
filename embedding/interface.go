// Package embedding turns text into vectors for the vector index backends.
package embedding

import "context"

// Embedder generates embeddings for text.
type Embedder interface {
	// Embed generates the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector size produced by the model.
	Dimension() int

	// Model returns the embedding model name.
	Model() string
}
