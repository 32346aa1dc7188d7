package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/chunker"
	"github.com/creastat/catalog/embedding"
	"github.com/creastat/catalog/vectorstore"
)

// Payload keys stored on every point.
const (
	payloadEntryID   = "entry_id"
	payloadKey       = "key"
	payloadNamespace = "namespace"
	payloadOrder     = "order"
	payloadContent   = "content"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// CollectionName is the collection holding all namespaces. Default: "catalog".
	CollectionName string

	// APIKey is optional API key for authentication.
	APIKey string

	// Chunking controls how entry text is split before embedding.
	Chunking chunker.Options
}

// Client implements vectorstore.Gateway for Qdrant.
// Namespaces share one collection and are told apart by the "namespace" payload field.
type Client struct {
	client         *qdrant.Client
	collectionName string
	embedder       embedding.Embedder
	chunking       chunker.Options

	mu      sync.Mutex
	created bool
}

// New creates a new Qdrant gateway.
func New(cfg Config, embedder embedding.Embedder) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", catalog.ErrInvalidConfig)
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = "catalog"
	}

	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Client{
		client:         qdrantClient,
		collectionName: cfg.CollectionName,
		embedder:       embedder,
		chunking:       cfg.Chunking,
	}, nil
}

// parseURL extracts host, gRPC port and TLS mode from a Qdrant URL.
func parseURL(raw string) (string, int, bool, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	return u.Hostname(), port, u.Scheme == "https", nil
}

// GetNamespace implements vectorstore.Gateway.
// A namespace exists once at least one point carries its name.
func (c *Client) GetNamespace(ctx context.Context, name string) (*vectorstore.Namespace, error) {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to check qdrant collection: %w", err)
	}
	if !exists {
		return nil, nil
	}

	exact := true
	count, err := c.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: c.collectionName,
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{buildMatchCondition(payloadNamespace, name)}},
		Exact:          &exact,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count namespace points: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	info, err := c.client.GetCollectionInfo(ctx, c.collectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get qdrant collection info: %w", err)
	}

	return &vectorstore.Namespace{
		Name:      name,
		Dimension: int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
	}, nil
}

// Add implements vectorstore.Gateway.
func (c *Client) Add(ctx context.Context, req vectorstore.AddRequest) (string, error) {
	texts := chunker.Split(req.Text, c.chunking)
	if len(texts) == 0 {
		return "", fmt.Errorf("entry text is empty")
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("failed to embed entry: %w", err)
	}

	if err := c.ensureCollection(ctx); err != nil {
		return "", err
	}

	entryID := uuid.NewString()
	points := make([]*qdrant.PointStruct, len(texts))
	for i, text := range texts {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadEntryID:   entryID,
				payloadKey:       req.Key,
				payloadNamespace: req.Namespace,
				payloadOrder:     int64(i),
				payloadContent:   text,
			}),
		}
	}

	wait := true
	if _, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collectionName,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return "", fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return entryID, nil
}

// Delete implements vectorstore.Gateway.
func (c *Client) Delete(ctx context.Context, entryID string) error {
	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check qdrant collection: %w", err)
	}
	if !exists {
		return nil
	}

	wait := true
	_, err = c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collectionName,
		Wait:           &wait,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{buildMatchCondition(payloadEntryID, entryID)},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

// Search implements vectorstore.Gateway.
func (c *Client) Search(ctx context.Context, req vectorstore.SearchRequest) (*vectorstore.SearchResponse, error) {
	vector, err := c.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := uint64(max(req.Limit, 1))
	threshold := req.ScoreThreshold
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{buildMatchCondition(payloadNamespace, req.Namespace)}},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	resp := &vectorstore.SearchResponse{
		Results: make([]vectorstore.Hit, 0, len(points)),
	}
	seen := make(map[string]bool)

	for _, point := range points {
		if point.Score < req.ScoreThreshold {
			continue
		}

		p := decodePayload(point.Payload)
		hit := vectorstore.Hit{
			EntryID:    p.entryID,
			Score:      point.Score,
			Order:      p.order,
			StartOrder: p.order,
			Content:    []vectorstore.ChunkText{{Text: p.content}},
		}

		if req.ChunkContext.Before > 0 || req.ChunkContext.After > 0 {
			if err := c.withContext(ctx, &hit, req.ChunkContext); err != nil {
				return nil, err
			}
		}
		resp.Results = append(resp.Results, hit)

		if !seen[p.entryID] {
			seen[p.entryID] = true
			resp.Entries = append(resp.Entries, vectorstore.Entry{EntryID: p.entryID, Key: p.key})
		}
	}
	resp.Text = vectorstore.ComposeText(resp.Results)

	return resp, nil
}

// Close implements vectorstore.Gateway.
func (c *Client) Close() error {
	return c.client.Close()
}

// withContext replaces the hit's content with the chunks around it.
func (c *Client) withContext(ctx context.Context, hit *vectorstore.Hit, cc vectorstore.ChunkContext) error {
	start, end := vectorstore.ContextRange(hit.Order, 0, cc)
	gte, lte := float64(start), float64(end)
	limit := uint32(end - start + 1)

	neighbours, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.collectionName,
		Filter: &qdrant.Filter{Must: []*qdrant.Condition{
			buildMatchCondition(payloadEntryID, hit.EntryID),
			qdrant.NewRange(payloadOrder, &qdrant.Range{Gte: &gte, Lte: &lte}),
		}},
		Limit:       &limit,
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant context scroll failed: %w", err)
	}

	chunks := make([]payload, 0, len(neighbours))
	for _, n := range neighbours {
		chunks = append(chunks, decodePayload(n.Payload))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].order < chunks[j].order })

	// Only keep a contiguous run that includes the matched chunk
	content := make([]vectorstore.ChunkText, 0, len(chunks))
	startOrder := hit.Order
	for i, ch := range chunks {
		if i > 0 && ch.order != chunks[i-1].order+1 {
			if ch.order > hit.Order {
				break
			}
			content = content[:0]
		}
		if len(content) == 0 {
			startOrder = ch.order
		}
		content = append(content, vectorstore.ChunkText{Text: ch.content})
	}
	if len(content) == 0 {
		return nil
	}

	hit.StartOrder = startOrder
	hit.Content = content
	return nil
}

// ensureCollection creates the collection and its payload indexes on first use.
func (c *Client) ensureCollection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.created {
		return nil
	}

	exists, err := c.client.CollectionExists(ctx, c.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check qdrant collection: %w", err)
	}

	if !exists {
		err := c.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.embedder.Dimension()),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create qdrant collection: %w", err)
		}

		indexes := map[string]qdrant.FieldType{
			payloadEntryID:   qdrant.FieldType_FieldTypeKeyword,
			payloadNamespace: qdrant.FieldType_FieldTypeKeyword,
			payloadOrder:     qdrant.FieldType_FieldTypeInteger,
		}
		for field, fieldType := range indexes {
			if _, err := c.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: c.collectionName,
				FieldName:      field,
				FieldType:      fieldType.Enum(),
			}); err != nil {
				return fmt.Errorf("failed to create qdrant index on %s: %w", field, err)
			}
		}
	}

	c.created = true
	return nil
}

// payload is the decoded form of a point's payload.
type payload struct {
	entryID string
	key     string
	order   int
	content string
}

// decodePayload extracts the gateway fields from a Qdrant payload.
func decodePayload(values map[string]*qdrant.Value) payload {
	var p payload
	for k, v := range values {
		switch k {
		case payloadEntryID:
			p.entryID = v.GetStringValue()
		case payloadKey:
			p.key = v.GetStringValue()
		case payloadContent:
			p.content = v.GetStringValue()
		case payloadOrder:
			switch n := extractValue(v).(type) {
			case int64:
				p.order = int(n)
			case float64:
				p.order = int(n)
			}
		}
	}
	return p
}

// buildMatchCondition creates a match condition for a key-value pair.
func buildMatchCondition(key string, value any) *qdrant.Condition {
	var match *qdrant.Match

	switch v := value.(type) {
	case string:
		match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
	case int:
		match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
	case int64:
		match = &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: v}}
	case bool:
		match = &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
	default:
		match = &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: fmt.Sprintf("%v", v)}}
	}

	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   key,
				Match: match,
			},
		},
	}
}

// extractValue extracts a Go value from a Qdrant Value.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}

	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return nil
	}
}

// Compile-time check that Client implements Gateway.
var _ vectorstore.Gateway = (*Client)(nil)
