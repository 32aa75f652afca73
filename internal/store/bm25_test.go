package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBM25(t *testing.T) *BM25Index {
	t.Helper()
	idx, err := NewBM25Index(DefaultBM25Config())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBM25Index_AddAndSearch(t *testing.T) {
	idx := newTestBM25(t)

	require.NoError(t, idx.Add(1, "hello world greeting"))
	require.NoError(t, idx.Add(2, "parse configuration file"))

	results, err := idx.Search(context.Background(), "hello", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
	assert.Greater(t, results[0].Score, 0.0)
	assert.Contains(t, results[0].MatchedTerms, "hello")
}

func TestBM25Index_TermFrequencyDrivesRanking(t *testing.T) {
	idx := newTestBM25(t)

	require.NoError(t, idx.Add(1, "hello hello hello greeting"))
	require.NoError(t, idx.Add(2, "hello world parser"))
	require.NoError(t, idx.Add(3, "unrelated document entirely"))

	results, err := idx.Search(context.Background(), "hello", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The document repeating the query term must outrank the single
	// occurrence.
	assert.Equal(t, uint64(1), results[0].ID)
	assert.Equal(t, uint64(2), results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestBM25Index_AutoIDAdvancesPastExplicit(t *testing.T) {
	idx := newTestBM25(t)

	id0, err := idx.AddAuto("first document")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id0)

	require.NoError(t, idx.Add(10, "explicit document"))

	id11, err := idx.AddAuto("after explicit")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id11)
}

func TestBM25Index_AddReplacesExisting(t *testing.T) {
	idx := newTestBM25(t)

	require.NoError(t, idx.Add(5, "alpha content"))
	require.NoError(t, idx.Add(5, "beta content"))

	assert.Equal(t, 1, idx.Count())

	results, err := idx.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(context.Background(), "beta", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(5), results[0].ID)
}

func TestBM25Index_EmptyQueryReturnsNoResults(t *testing.T) {
	idx := newTestBM25(t)
	require.NoError(t, idx.Add(1, "some content"))

	results, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25Index_Remove(t *testing.T) {
	idx := newTestBM25(t)

	require.NoError(t, idx.Add(1, "keep this"))
	require.NoError(t, idx.Add(2, "drop this"))
	require.NoError(t, idx.Remove([]uint64{2}))

	assert.Equal(t, 1, idx.Count())
	assert.Equal(t, []uint64{1}, idx.AllIDs())

	results, err := idx.Search(context.Background(), "drop", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25Index_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bm25.json")

	idx := newTestBM25(t)
	require.NoError(t, idx.Add(1, "searchable apple content"))
	require.NoError(t, idx.Add(7, "searchable banana content"))
	require.NoError(t, idx.Save(path))

	loaded, err := LoadBM25Index(path, DefaultBM25Config())
	require.NoError(t, err)
	defer loaded.Close()

	// Loaded index answers queries identically to the original.
	assert.Equal(t, 2, loaded.Count())
	assert.Equal(t, []uint64{1, 7}, loaded.AllIDs())

	results, err := loaded.Search(context.Background(), "banana", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(7), results[0].ID)

	content, ok := loaded.Content(1)
	require.True(t, ok)
	assert.Equal(t, "searchable apple content", content)

	// Auto-id continues past loaded ids.
	id, err := loaded.AddAuto("new document")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), id)
}

func TestBM25Index_CodeTokenization(t *testing.T) {
	idx := newTestBM25(t)
	require.NoError(t, idx.Add(1, "func getUserById(id string) {}"))

	// camelCase identifiers are searchable by their parts
	results, err := idx.Search(context.Background(), "user", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestBM25Index_ClosedIndexErrors(t *testing.T) {
	idx, err := NewBM25Index(DefaultBM25Config())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Add(1, "content"))
	_, err = idx.Search(context.Background(), "query", 10)
	assert.Error(t, err)
}
