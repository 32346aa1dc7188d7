package chunker

// EstimateTokens estimates the token count for a given text using a Unicode-aware heuristic.
// ASCII characters are weighted at ~4 per token, other runes (CJK, Cyrillic, emoji) at ~1.
func EstimateTokens(text string) int {
	return (runeWeight(text) + 3) / 4
}

// TruncateTokens cuts text so that its estimated token count does not exceed limit.
// The cut happens on a rune boundary; limit <= 0 returns text unchanged.
func TruncateTokens(text string, limit int) string {
	if limit <= 0 || EstimateTokens(text) <= limit {
		return text
	}

	budget := limit * 4
	weight := 0
	for i, r := range text {
		weight += weightOf(r)
		if weight > budget {
			return text[:i]
		}
	}
	return text
}

func runeWeight(text string) int {
	weight := 0
	for _, r := range text {
		weight += weightOf(r)
	}
	return weight
}

func weightOf(r rune) int {
	if r <= 127 {
		return 1
	}
	return 4
}
