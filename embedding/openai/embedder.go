// Package openai implements embedding.Embedder with the OpenAI embeddings API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/creastat/catalog/embedding"
)

const (
	// DefaultModel is used when no model option is given.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimension is the OpenAI default for DefaultModel.
	DefaultDimension = 1536

	maxBatchSize = 100
)

type embedderOptions struct {
	model     string
	dimension int
}

// Option overrides Embedder defaults.
type Option func(*embedderOptions)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(o *embedderOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithDimension overrides the vector dimension.
func WithDimension(dimension int) Option {
	return func(o *embedderOptions) {
		if dimension > 0 {
			o.dimension = dimension
		}
	}
}

// Embedder converts text to vectors with the OpenAI API.
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
}

// New creates a new OpenAI embedder.
func New(apiKey string, opts ...Option) *Embedder {
	options := embedderOptions{
		model:     DefaultModel,
		dimension: DefaultDimension,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Embedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     options.model,
		dimension: options.dimension,
	}
}

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}
	return vectors[0], nil
}

// EmbedBatch implements embedding.Embedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))

		batch, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		vectors[data.Index] = vector
	}

	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("missing embedding at index %d", i)
		}
	}
	return vectors, nil
}

// Dimension implements embedding.Embedder.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Model implements embedding.Embedder.
func (e *Embedder) Model() string {
	return e.model
}

var _ embedding.Embedder = (*Embedder)(nil)
