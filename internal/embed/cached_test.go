package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_HitsSkipInner(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedder(mock, 10)
	defer cached.Close()

	ctx := context.Background()
	a, err := cached.Embed(ctx, "repeated query")
	require.NoError(t, err)
	b, err := cached.Embed(ctx, "repeated query")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, mock.Calls())
}

func TestCachedEmbedder_BatchMixesHitsAndMisses(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedder(mock, 10)
	defer cached.Close()

	ctx := context.Background()
	warm, err := cached.Embed(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, 1, mock.Calls())

	results, err := cached.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, warm, results[0])
	// Only "beta" went to the inner embedder
	assert.Equal(t, 2, mock.Calls())
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	mock := NewMockEmbedder()
	cached := NewCachedEmbedderWithDefaults(mock)

	assert.Equal(t, MockDimensions, cached.Dimensions())
	assert.Equal(t, "mock", cached.ModelName())
	assert.True(t, cached.Available(context.Background()))
	assert.Same(t, Embedder(mock), cached.Inner())

	require.NoError(t, cached.Close())
	assert.False(t, mock.Available(context.Background()))
}

func TestCachedEmbedder_ZeroSizeUsesDefault(t *testing.T) {
	cached := NewCachedEmbedder(NewMockEmbedder(), 0)
	defer cached.Close()

	_, err := cached.Embed(context.Background(), "text")
	assert.NoError(t, err)
}
