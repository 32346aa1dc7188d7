package search

import (
	"sort"

	"github.com/creastat/catalog/vectorstore"
)

// Ranked is a listing's best match after deduplication.
type Ranked struct {
	ListingID string
	Score     float32
	Snippet   string
}

// OwnerMap maps entry IDs to the listing IDs they were added under.
func OwnerMap(entries []vectorstore.Entry) map[string]string {
	owners := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Key != "" {
			owners[e.EntryID] = e.Key
		}
	}
	return owners
}

// Dedupe groups hits by owning listing and keeps the highest-scoring hit of each.
// Hits whose entry has no known owner fall back to the entry ID.
// The result is sorted by score, descending.
func Dedupe(hits []vectorstore.Hit, owners map[string]string) []Ranked {
	best := make(map[string]int, len(hits))
	ranked := make([]Ranked, 0, len(hits))

	for _, h := range hits {
		listingID := ownerOf(h.EntryID, owners)

		if i, seen := best[listingID]; seen {
			if h.Score > ranked[i].Score {
				ranked[i].Score = h.Score
				ranked[i].Snippet = h.Snippet()
			}
			continue
		}

		best[listingID] = len(ranked)
		ranked = append(ranked, Ranked{
			ListingID: listingID,
			Score:     h.Score,
			Snippet:   h.Snippet(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
