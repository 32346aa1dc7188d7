package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog/listing"
)

func TestFormatProducts(t *testing.T) {
	matches := []Match{{
		Listing: listing.Listing{ID: "L1", Title: "Lamp", Description: "Warm", Price: 12.5, Category: "Home"},
		Score:   0.8,
		Snippet: "Warm",
	}}

	out, err := json.Marshal(FormatProducts(matches))
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"listingId":"L1","title":"Lamp","description":"Warm","price":12.5,"category":"Home","score":0.8}]}`, string(out))
}

func TestFormatRAG(t *testing.T) {
	matches := []Match{{
		Listing: listing.Listing{ID: "L1", Title: "Lamp", Price: 3, Category: "Home"},
		Score:   0.5,
		Snippet: "Lamp",
	}}

	resp := FormatRAG(matches, "Lamp")
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Lamp", resp.Results[0].Snippet)
	assert.Equal(t, "Lamp", resp.Text)

	out, err := json.Marshal(FormatRAG(nil, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[],"text":""}`, string(out))
}
