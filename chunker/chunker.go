// Package chunker splits listing text into independently embeddable chunks.
package chunker

import (
	"strings"
)

// DefaultMaxTokens bounds a chunk when Options.MaxTokens is unset.
const DefaultMaxTokens = 256

// Options controls Split.
type Options struct {
	// MaxTokens is the estimated token budget per chunk.
	MaxTokens int

	// OverlapTokens repeats the tail of a word-split chunk at the start of the next one.
	OverlapTokens int
}

// Split breaks text into chunks of at most MaxTokens estimated tokens.
// Paragraphs are packed together while they fit; a paragraph that is too large on its
// own is split on word boundaries. Blank input yields no chunks.
func Split(text string, opts Options) []string {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.OverlapTokens < 0 || opts.OverlapTokens >= opts.MaxTokens {
		opts.OverlapTokens = 0
	}

	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentTokens = 0
		}
	}

	for _, para := range paragraphs(text) {
		tokens := EstimateTokens(para)

		if tokens > opts.MaxTokens {
			flush()
			chunks = append(chunks, splitWords(para, opts)...)
			continue
		}

		if currentTokens+tokens > opts.MaxTokens {
			flush()
		}
		current = append(current, para)
		currentTokens += tokens
	}
	flush()

	return chunks
}

// paragraphs returns the trimmed, non-empty paragraphs of text.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitWords packs words into chunks, carrying OverlapTokens worth of trailing words forward.
func splitWords(text string, opts Options) []string {
	words := strings.Fields(text)

	var chunks []string
	start := 0
	for start < len(words) {
		end := start
		tokens := 0
		for end < len(words) {
			t := EstimateTokens(words[end] + " ")
			if tokens+t > opts.MaxTokens && end > start {
				break
			}
			tokens += t
			end++
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))

		if end >= len(words) {
			break
		}

		next := end
		overlap := 0
		for next > start+1 && overlap < opts.OverlapTokens {
			overlap += EstimateTokens(words[next-1] + " ")
			next--
		}
		start = next
	}
	return chunks
}
