package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVectorIndex(t *testing.T, dims int) *VectorIndex {
	t.Helper()
	idx, err := NewVectorIndex(DefaultVectorConfig(dims))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestVectorIndex_AddAndSearch(t *testing.T) {
	idx := newTestVectorIndex(t, 3)

	require.NoError(t, idx.Add(
		[]uint64{1, 2, 3},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		},
	))

	results, err := idx.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Nearest first
	assert.Equal(t, uint64(1), results[0].ID)
	assert.Equal(t, uint64(3), results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	idx := newTestVectorIndex(t, 3)

	err := idx.Add([]uint64{1}, [][]float32{{1, 0}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = idx.Search([]float32{1, 0}, 1)
	assert.Error(t, err)
}

func TestVectorIndex_EmptySearch(t *testing.T) {
	idx := newTestVectorIndex(t, 3)

	results, err := idx.Search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorIndex_DeleteHidesResults(t *testing.T) {
	idx := newTestVectorIndex(t, 3)

	require.NoError(t, idx.Add(
		[]uint64{1, 2},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	))
	require.NoError(t, idx.Delete([]uint64{1}))

	assert.Equal(t, 1, idx.Count())
	assert.False(t, idx.Contains(1))
	assert.True(t, idx.Contains(2))

	// Lazy-deleted nodes never surface in search results
	results, err := idx.Search([]float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].ID)
}

func TestVectorIndex_ReplaceExistingID(t *testing.T) {
	idx := newTestVectorIndex(t, 3)

	require.NoError(t, idx.Add([]uint64{1}, [][]float32{{1, 0, 0}}))
	require.NoError(t, idx.Add([]uint64{1}, [][]float32{{0, 0, 1}}))

	assert.Equal(t, 1, idx.Count())

	results, err := idx.Search([]float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
}

func TestVectorIndex_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.hnsw")

	idx := newTestVectorIndex(t, 3)
	require.NoError(t, idx.Add(
		[]uint64{10, 20},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
	))
	require.NoError(t, idx.Save(path))

	loaded, err := NewVectorIndex(DefaultVectorConfig(3))
	require.NoError(t, err)
	defer loaded.Close()
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, 2, loaded.Count())
	assert.Equal(t, []uint64{10, 20}, loaded.AllIDs())

	results, err := loaded.Search([]float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(20), results[0].ID)
}

func TestDistanceToScore(t *testing.T) {
	assert.InDelta(t, 1.0, float64(distanceToScore(0, "cos")), 1e-6)
	assert.InDelta(t, 0.0, float64(distanceToScore(2, "cos")), 1e-6)
	assert.InDelta(t, 1.0, float64(distanceToScore(0, "l2")), 1e-6)
	assert.InDelta(t, 0.5, float64(distanceToScore(1, "l2")), 1e-6)
}

func TestNormalizeVectorInPlace(t *testing.T) {
	v := []float32{3, 4, 0}
	normalizeVectorInPlace(v)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	// Zero vector stays untouched
	z := []float32{0, 0, 0}
	normalizeVectorInPlace(z)
	assert.Equal(t, []float32{0, 0, 0}, z)
}
