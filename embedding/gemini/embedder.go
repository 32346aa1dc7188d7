// Package gemini implements embedding.Embedder with the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/embedding"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gemini-embedding-001"
	// DefaultDimension is the output dimensionality requested by default.
	DefaultDimension = 768
	// DefaultTaskType tunes embeddings for symmetric query/listing similarity.
	DefaultTaskType = "SEMANTIC_SIMILARITY"

	maxBatchSize = 100
)

// Config holds Gemini embedding configuration.
type Config struct {
	APIKey    string
	Model     string
	Dimension int
	TaskType  string
}

// Embedder generates embeddings through the Gemini API.
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
	taskType  string
}

// New creates a new Gemini embedder. Returns an error if the API key is missing.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", catalog.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.TaskType == "" {
		cfg.TaskType = DefaultTaskType
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Embedder{
		client:    client,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		taskType:  cfg.TaskType,
	}, nil
}

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements embedding.Embedder, splitting large inputs into API-sized batches.
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
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dim := int32(e.dimension)
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             e.taskType,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = emb.Values
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
