package vectorstore

import (
	"math"
	"sort"
	"strings"
)

const (
	entrySeparator = "\n\n---\n\n"
	gapMarker      = "..."
)

// ComposeText aggregates hits into one prose blob.
// Hits are grouped by entry in first-seen order; within an entry chunks are ordered by
// position, repeated chunks appear once, and non-contiguous runs are separated by "...".
func ComposeText(hits []Hit) string {
	type entryChunks struct {
		chunks map[int]string
	}

	var order []string
	byEntry := make(map[string]*entryChunks)

	for _, h := range hits {
		e, ok := byEntry[h.EntryID]
		if !ok {
			e = &entryChunks{chunks: make(map[int]string)}
			byEntry[h.EntryID] = e
			order = append(order, h.EntryID)
		}
		for i, c := range h.Content {
			e.chunks[h.StartOrder+i] = c.Text
		}
	}

	parts := make([]string, 0, len(order))
	for _, id := range order {
		e := byEntry[id]

		positions := make([]int, 0, len(e.chunks))
		for pos := range e.chunks {
			positions = append(positions, pos)
		}
		sort.Ints(positions)

		var b strings.Builder
		for i, pos := range positions {
			if i > 0 {
				if pos != positions[i-1]+1 {
					b.WriteString("\n" + gapMarker + "\n")
				} else {
					b.WriteString("\n")
				}
			}
			b.WriteString(e.chunks[pos])
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, entrySeparator)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// ContextRange returns the first and last chunk positions to return for a match at order
// within an entry of size chunks. A size <= 0 means the entry size is unknown.
func ContextRange(order, size int, cc ChunkContext) (int, int) {
	start := max(order-max(cc.Before, 0), 0)
	end := order + max(cc.After, 0)
	if size > 0 {
		end = min(end, size-1)
	}
	return start, end
}
