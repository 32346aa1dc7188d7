package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	l, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Listing{ID: "l1", Title: "Lamp", Status: StatusActive})
	require.NoError(t, s.Patch(ctx, "l1", SetEmbedding("e1")))

	l, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	l.Title = "changed"
	*l.EmbeddingID = "changed"

	again, err := s.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", again.Title)
	assert.Equal(t, "e1", again.Handle())
}

func TestMemoryStore_Patch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Listing{ID: "l1", Status: StatusActive})

	require.NoError(t, s.Patch(ctx, "l1", SetEmbedding("e1")))
	l, _ := s.Get(ctx, "l1")
	assert.Equal(t, "e1", l.Handle())

	sold := StatusSold
	require.NoError(t, s.Patch(ctx, "l1", Patch{Status: &sold}))
	l, _ = s.Get(ctx, "l1")
	assert.Equal(t, StatusSold, l.Status)
	assert.Equal(t, "e1", l.Handle(), "untouched fields are kept")

	require.NoError(t, s.Patch(ctx, "l1", ClearEmbedding()))
	l, _ = s.Get(ctx, "l1")
	assert.Nil(t, l.EmbeddingID)
	assert.Equal(t, "", l.Handle())
}

func TestMemoryStore_PatchMissing(t *testing.T) {
	s := NewMemoryStore()
	err := s.Patch(context.Background(), "nope", SetEmbedding("e1"))
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMemoryStore_GetManySkipsUnknown(t *testing.T) {
	s := NewMemoryStore(
		Listing{ID: "l1", Status: StatusActive},
		Listing{ID: "l2", Status: StatusSold},
	)

	listings, err := s.GetMany(context.Background(), []string{"l2", "missing", "l1"})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "l2", listings[0].ID)
	assert.Equal(t, "l1", listings[1].ID)
}

func TestMemoryStore_List(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(
		Listing{ID: "c", Status: StatusActive, Category: "Books", CreatedAt: base.Add(2 * time.Hour)},
		Listing{ID: "a", Status: StatusActive, Category: "Books", CreatedAt: base},
		Listing{ID: "b", Status: StatusDraft, Category: "Books", CreatedAt: base.Add(time.Hour)},
		Listing{ID: "d", Status: StatusActive, Category: "Lamps", CreatedAt: base.Add(3 * time.Hour)},
	)
	ctx := context.Background()

	active, err := s.List(ctx, Filter{Status: StatusActive})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(active))

	limited, err := s.List(ctx, Filter{Status: StatusActive, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(limited))

	books, err := s.List(ctx, Filter{Category: "Books"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(books))
}

func TestListing_ActiveAndHandle(t *testing.T) {
	var nilListing *Listing
	assert.False(t, nilListing.Active())
	assert.Equal(t, "", nilListing.Handle())

	assert.True(t, (&Listing{Status: StatusActive}).Active())
	assert.False(t, (&Listing{Status: StatusDraft}).Active())

	assert.True(t, StatusArchived.Valid())
	assert.False(t, Status("deleted").Valid())
}

func ids(listings []Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}
