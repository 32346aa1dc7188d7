package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, e.Model())
	assert.Equal(t, DefaultDimension, e.Dimension())
	assert.Equal(t, DefaultTaskType, e.taskType)
}

func TestEmbedBatch_Empty(t *testing.T) {
	e, err := New(context.Background(), Config{APIKey: "test-key", Dimension: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, e.Dimension())

	_, err = e.EmbedBatch(context.Background(), nil)
	assert.Error(t, err)
}
