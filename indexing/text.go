package indexing

import (
	"strings"

	"github.com/creastat/catalog/listing"
)

// CanonicalText builds the text embedded for a listing: title, description and a
// labeled category line, separated by blank lines. Empty fields are skipped.
func CanonicalText(l *listing.Listing) string {
	parts := make([]string, 0, 3)
	if title := strings.TrimSpace(l.Title); title != "" {
		parts = append(parts, title)
	}
	if desc := strings.TrimSpace(l.Description); desc != "" {
		parts = append(parts, desc)
	}
	if category := strings.TrimSpace(l.Category); category != "" {
		parts = append(parts, "Category: "+category)
	}
	return strings.Join(parts, "\n\n")
}
