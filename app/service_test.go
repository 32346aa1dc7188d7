package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog"
	"github.com/creastat/catalog/chunker"
	"github.com/creastat/catalog/embedding/embeddingtest"
	"github.com/creastat/catalog/indexing"
	"github.com/creastat/catalog/listing"
	"github.com/creastat/catalog/search"
	"github.com/creastat/catalog/vectorstore/memory"
)

func newService(seed ...listing.Listing) (*Service, *listing.MemoryStore, *memory.Store) {
	store := listing.NewMemoryStore(seed...)
	gw := memory.New(embeddingtest.New(), chunker.Options{})
	svc := NewService(indexing.NewManager(store, gw), search.NewEngine(store, gw))
	return svc, store, gw
}

func textbook(status listing.Status) listing.Listing {
	return listing.Listing{
		ID:          "L1",
		Title:       "Calculus Textbook",
		Description: "Barely used",
		Category:    "Books",
		Price:       25,
		Status:      status,
	}
}

func TestService_QueryValidation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.SearchProducts(ctx, q, 5)
		assert.ErrorIs(t, err, catalog.ErrInvalidQuery, "query %q", q)

		_, err = svc.SearchListingsRAG(ctx, q, 5, nil)
		assert.ErrorIs(t, err, catalog.ErrInvalidQuery, "query %q", q)
	}

	_, err := svc.SearchProducts(ctx, "lamp", -1)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuery)

	bad := float32(1.5)
	_, err = svc.SearchListingsRAG(ctx, "lamp", 0, &bad)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuery)

	_, err = svc.BackfillEmbeddings(ctx, -1)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuery)
}

func TestService_EmbedAndSearch(t *testing.T) {
	svc, _, _ := newService(textbook(listing.StatusActive))
	ctx := context.Background()

	require.NoError(t, svc.EmbedListing(ctx, "L1"))

	resp, err := svc.SearchProducts(ctx, "calculus book", 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, search.ProductResult{
		ListingID:   "L1",
		Title:       "Calculus Textbook",
		Description: "Barely used",
		Price:       25,
		Category:    "Books",
		Score:       resp.Results[0].Score,
	}, resp.Results[0])
	assert.Greater(t, resp.Results[0].Score, float32(0.3))

	rag, err := svc.SearchListingsRAG(ctx, "calculus book", 0, nil)
	require.NoError(t, err)
	require.Len(t, rag.Results, 1)
	assert.NotEmpty(t, rag.Results[0].Snippet)
	assert.Contains(t, rag.Text, "Calculus Textbook")
}

func TestService_EmptyIndex(t *testing.T) {
	svc, _, _ := newService()

	resp, err := svc.SearchProducts(context.Background(), "calculus book", 10)
	require.NoError(t, err)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestService_DraftIsNotEmbedded(t *testing.T) {
	svc, store, gw := newService(textbook(listing.StatusDraft))
	ctx := context.Background()

	require.NoError(t, svc.EmbedListing(ctx, "L1"))

	assert.Equal(t, 0, gw.LiveEntries(indexing.DefaultNamespace, "L1"))
	l, err := store.Get(ctx, "L1")
	require.NoError(t, err)
	assert.Nil(t, l.EmbeddingID)
}

func TestService_RemoveAndSync(t *testing.T) {
	svc, store, gw := newService(textbook(listing.StatusActive))
	ctx := context.Background()

	require.NoError(t, svc.SyncListing(ctx, "L1"))
	l, err := store.Get(ctx, "L1")
	require.NoError(t, err)
	handle := l.Handle()
	require.NotEmpty(t, handle)

	require.NoError(t, svc.RemoveListingEmbedding(ctx, "L1", handle))
	require.NoError(t, svc.RemoveListingEmbedding(ctx, "L1", handle))
	require.NoError(t, svc.RemoveListingEmbedding(ctx, "L1", ""))
	assert.Equal(t, 0, gw.LiveEntries(indexing.DefaultNamespace, "L1"))
}

func TestService_Backfill(t *testing.T) {
	svc, _, gw := newService(textbook(listing.StatusActive))

	result, err := svc.BackfillEmbeddings(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, indexing.BackfillResult{Processed: 1}, result)
	assert.Equal(t, 1, gw.LiveEntries(indexing.DefaultNamespace, "L1"))
}
