package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creastat/catalog"
)

func setInMemoryEnv(t *testing.T) {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("SUPABASE_URL", "")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_CACHE", "memory")
	t.Setenv("LOG_LEVEL", "error")
}

func TestNewAppContext_InMemory(t *testing.T) {
	setInMemoryEnv(t)
	ctx := context.Background()

	ac, err := NewAppContext(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, ac.Service)

	// nothing indexed yet, so no embedding call is made
	resp, err := ac.Service.SearchProducts(ctx, "calculus book", 5)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	result, err := ac.Service.BackfillEmbeddings(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)

	assert.NoError(t, ac.Close())
	assert.NoError(t, ac.Close())
}

func TestNewAppContext_InvalidConfig(t *testing.T) {
	setInMemoryEnv(t)
	t.Setenv("VECTOR_STORE", "faiss")

	_, err := NewAppContext(context.Background(), "")
	assert.ErrorIs(t, err, catalog.ErrInvalidConfig)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"processed": 2}))
	assert.Equal(t, "{\n  \"processed\": 2\n}\n", buf.String())
}
