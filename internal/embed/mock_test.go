package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder()
	defer e.Close()

	ctx := context.Background()
	a, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)
	c, err := e.Embed(ctx, "different text")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, MockDimensions)
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	e := NewMockEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "anything")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockEmbedder_EmptyTextZeroVector(t *testing.T) {
	e := NewMockEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestMockEmbedder_CountsCalls(t *testing.T) {
	e := NewMockEmbedder()
	defer e.Close()

	ctx := context.Background()
	_, err := e.EmbedBatch(ctx, []string{"one", "two", "three"})
	require.NoError(t, err)
	assert.Equal(t, 3, e.Calls())
}

func TestMockEmbedder_RespectsCancelledContext(t *testing.T) {
	e := NewMockEmbedder()
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
