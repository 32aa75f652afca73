package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semidx/semidx/internal/config"
	"github.com/semidx/semidx/internal/embed"
	semerr "github.com/semidx/semidx/internal/errors"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Index.BaseDir = t.TempDir()
	cfg.Embeddings.Provider = "mock"

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeSourceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestClient_AddDirectoryAndSearchAll(t *testing.T) {
	c := newTestClient(t)
	source := writeSourceDir(t, map[string]string{
		"a.txt": "hello world",
		"b.txt": "hello there",
	})

	handle, err := c.AddDirectory(source, AddOptions{EmbeddingType: embed.EmbeddingTypeFast})
	require.NoError(t, err)
	c.WaitForOperations()

	assert.Contains(t, handle.Progress.Snapshot().Message, "Indexing complete")

	descs := c.Contexts()
	require.Len(t, descs, 1)
	assert.Equal(t, filepath.Base(source), descs[0].Name)
	assert.Equal(t, 2, descs[0].ItemCount)

	all, err := c.SearchAll(context.Background(), "hello", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Results, 2)
}

func TestClient_AddDirectory_SemanticSearch(t *testing.T) {
	c := newTestClient(t)
	source := writeSourceDir(t, map[string]string{
		"a.txt": "hello world",
		"b.txt": "unrelated content entirely",
	})

	_, err := c.AddDirectory(source, AddOptions{EmbeddingType: embed.EmbeddingTypeBest})
	require.NoError(t, err)
	c.WaitForOperations()

	descs := c.Contexts()
	require.Len(t, descs, 1)

	results, err := c.SearchContext(context.Background(), descs[0].ID, "hello world", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hello world", results[0].Point.Payload["text"])
}

func TestClient_AddDirectory_InvalidPath(t *testing.T) {
	c := newTestClient(t)

	_, err := c.AddDirectory(filepath.Join(t.TempDir(), "missing"), AddOptions{})
	assert.Equal(t, semerr.ErrCodeInvalidPath, semerr.GetCode(err))

	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = c.AddDirectory(file, AddOptions{})
	assert.Equal(t, semerr.ErrCodeInvalidPath, semerr.GetCode(err))
}

func TestClient_AddDirectory_DuplicatePath(t *testing.T) {
	c := newTestClient(t)
	source := writeSourceDir(t, map[string]string{"a.txt": "hello"})

	_, err := c.AddDirectory(source, AddOptions{EmbeddingType: embed.EmbeddingTypeFast})
	require.NoError(t, err)
	c.WaitForOperations()

	_, err = c.AddDirectory(source, AddOptions{EmbeddingType: embed.EmbeddingTypeFast})
	require.Error(t, err)
	assert.Equal(t, semerr.ErrCodeDuplicatePath, semerr.GetCode(err))
}

func TestClient_SearchRejectsEmptyQuery(t *testing.T) {
	c := newTestClient(t)

	_, err := c.SearchAll(context.Background(), "", 10)
	assert.Equal(t, semerr.ErrCodeQueryEmpty, semerr.GetCode(err))

	_, err = c.SearchContext(context.Background(), "any", "", 10)
	assert.Equal(t, semerr.ErrCodeQueryEmpty, semerr.GetCode(err))
}

func TestClient_StatusReflectsContexts(t *testing.T) {
	c := newTestClient(t)
	source := writeSourceDir(t, map[string]string{"a.txt": "hello"})

	_, err := c.AddDirectory(source, AddOptions{
		EmbeddingType: embed.EmbeddingTypeFast,
		Persistent:    true,
	})
	require.NoError(t, err)
	c.WaitForOperations()

	status := c.Status()
	assert.Equal(t, 1, status.TotalContexts)
	assert.Equal(t, 1, status.PersistentContexts)
	assert.Equal(t, 0, status.VolatileContexts)
	require.Len(t, status.Operations, 1)
}

func TestClient_RemoveByName(t *testing.T) {
	c := newTestClient(t)
	source := writeSourceDir(t, map[string]string{"a.txt": "hello"})

	_, err := c.AddDirectory(source, AddOptions{
		Name:          "my-context",
		EmbeddingType: embed.EmbeddingTypeFast,
	})
	require.NoError(t, err)
	c.WaitForOperations()

	require.NoError(t, c.RemoveByName("my-context"))
	assert.Empty(t, c.Contexts())

	err = c.RemoveByName("my-context")
	assert.Equal(t, semerr.ErrCodeContextNotFound, semerr.GetCode(err))
}

func TestClient_Clear(t *testing.T) {
	c := newTestClient(t)
	source := writeSourceDir(t, map[string]string{"a.txt": "hello"})

	_, err := c.AddDirectory(source, AddOptions{EmbeddingType: embed.EmbeddingTypeFast})
	require.NoError(t, err)
	c.WaitForOperations()

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, c.Contexts())
}

func TestClient_CancelUnknownOperation(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Cancel("deadbeef")
	assert.Equal(t, semerr.ErrCodeOperationNotFound, semerr.GetCode(err))
}
