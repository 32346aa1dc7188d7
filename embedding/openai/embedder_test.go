package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Options(t *testing.T) {
	e := New("sk-test")
	assert.Equal(t, DefaultModel, e.Model())
	assert.Equal(t, DefaultDimension, e.Dimension())

	e = New("sk-test", WithModel("text-embedding-3-large"), WithDimension(3072))
	assert.Equal(t, "text-embedding-3-large", e.Model())
	assert.Equal(t, 3072, e.Dimension())

	e = New("sk-test", WithModel(""), WithDimension(0))
	assert.Equal(t, DefaultModel, e.Model())
	assert.Equal(t, DefaultDimension, e.Dimension())
}

func TestEmbedBatch_Empty(t *testing.T) {
	_, err := New("sk-test").EmbedBatch(context.Background(), []string{})
	assert.Error(t, err)
}
