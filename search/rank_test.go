package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creastat/catalog/vectorstore"
)

func TestDedupe(t *testing.T) {
	hits := []vectorstore.Hit{
		hit("e1", 0.4, "first"),
		hit("e2", 0.6, "second"),
		hit("e3", 0.9, "third"),
		hit("e4", 0.9, "fourth"),
	}
	owners := OwnerMap([]vectorstore.Entry{
		{EntryID: "e1", Key: "L1"},
		{EntryID: "e2", Key: "L2"},
		{EntryID: "e3", Key: "L1"},
		{EntryID: "e4", Key: ""},
	})

	ranked := Dedupe(hits, owners)

	assert.Equal(t, []Ranked{
		{ListingID: "L1", Score: 0.9, Snippet: "third"},
		{ListingID: "e4", Score: 0.9, Snippet: "fourth"},
		{ListingID: "L2", Score: 0.6, Snippet: "second"},
	}, ranked)
}

func TestDedupe_KeepsFirstOnTie(t *testing.T) {
	ranked := Dedupe([]vectorstore.Hit{hit("e1", 0.5, "a"), hit("e2", 0.5, "b")}, map[string]string{"e1": "L1", "e2": "L1"})

	assert.Equal(t, []Ranked{{ListingID: "L1", Score: 0.5, Snippet: "a"}}, ranked)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil, nil))
}
