package search

import "github.com/creastat/catalog/listing"

// ProductResult is a listing matched by SearchProducts.
type ProductResult struct {
	ListingID   string  `json:"listingId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Score       float32 `json:"score"`
}

// ProductResponse is the result of SearchProducts.
type ProductResponse struct {
	Results []ProductResult `json:"results"`
}

// RAGResult is a listing matched by SearchListingsRAG.
type RAGResult struct {
	ListingID   string  `json:"listingId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Snippet     string  `json:"snippet"`
	Score       float32 `json:"score"`
}

// RAGResponse is the result of SearchListingsRAG.
type RAGResponse struct {
	Results []RAGResult `json:"results"`
	Text    string      `json:"text"`
}

// Match is a resolved, ranked listing.
type Match struct {
	Listing listing.Listing
	Score   float32
	Snippet string
}

// FormatProducts shapes matches for card-list consumers.
func FormatProducts(matches []Match) *ProductResponse {
	results := make([]ProductResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, ProductResult{
			ListingID:   m.Listing.ID,
			Title:       m.Listing.Title,
			Description: m.Listing.Description,
			Price:       m.Listing.Price,
			Category:    m.Listing.Category,
			Score:       m.Score,
		})
	}
	return &ProductResponse{Results: results}
}

// FormatRAG shapes matches and their aggregated context for conversational agents.
func FormatRAG(matches []Match, text string) *RAGResponse {
	results := make([]RAGResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, RAGResult{
			ListingID:   m.Listing.ID,
			Title:       m.Listing.Title,
			Description: m.Listing.Description,
			Price:       m.Listing.Price,
			Category:    m.Listing.Category,
			Snippet:     m.Snippet,
			Score:       m.Score,
		})
	}
	return &RAGResponse{Results: results, Text: text}
}
