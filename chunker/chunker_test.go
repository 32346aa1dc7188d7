package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Blank(t *testing.T) {
	assert.Empty(t, Split("", Options{}))
	assert.Empty(t, Split("  \n\n \r\n ", Options{}))
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	chunks := Split("Calculus Textbook\n\n  Barely used  ", Options{})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Calculus Textbook\n\nBarely used", chunks[0])
}

func TestSplit_PacksParagraphs(t *testing.T) {
	// each paragraph estimates to 4 tokens
	text := "one two three\n\nfour fiv sixes\n\nseven eight n"
	chunks := Split(text, Options{MaxTokens: 8})

	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three\n\nfour fiv sixes", chunks[0])
	assert.Equal(t, "seven eight n", chunks[1])
}

func TestSplit_OversizeParagraphSplitsOnWords(t *testing.T) {
	words := []string{"abcd", "efgh", "ijkl", "mnop", "qrst", "uvwx"}
	chunks := Split(strings.Join(words, " "), Options{MaxTokens: 5})

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, EstimateTokens(c), 5)
	}
	assert.Equal(t, words, strings.Fields(strings.Join(chunks, " ")))
}

func TestSplit_Overlap(t *testing.T) {
	words := []string{"abcd", "efgh", "ijkl", "mnop", "qrst", "uvwx"}
	chunks := Split(strings.Join(words, " "), Options{MaxTokens: 5, OverlapTokens: 2})

	require.Len(t, chunks, 5)
	assert.Equal(t, "abcd efgh", chunks[0])
	assert.Equal(t, "efgh ijkl", chunks[1])
	assert.Equal(t, "qrst uvwx", chunks[4])
}

func TestSplit_SingleHugeWordMakesProgress(t *testing.T) {
	word := strings.Repeat("x", 100)
	chunks := Split(word+" tail", Options{MaxTokens: 5, OverlapTokens: 4})

	require.Len(t, chunks, 2)
	assert.Equal(t, word, chunks[0])
	assert.Equal(t, "tail", chunks[1])
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 2, EstimateTokens("日本"))
}

func TestTruncateTokens(t *testing.T) {
	assert.Equal(t, "abcdefgh", TruncateTokens("abcdefgh", 0))
	assert.Equal(t, "abcdefgh", TruncateTokens("abcdefgh", 2))
	assert.Equal(t, "abcd", TruncateTokens("abcdefgh", 1))

	cut := TruncateTokens("héllo wörld", 1)
	assert.Equal(t, "h", cut)
	assert.True(t, utf8.ValidString(cut))
}
