package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semerr "github.com/semidx/semidx/internal/errors"
)

func writeTree(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("file_%03d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	}
}

func TestProcessor_CountFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, 25)

	p := NewProcessor(100, 20, 10000)
	count, err := p.CountFiles(dir, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, count)
}

func TestProcessor_CountFiles_MaxFilesCap(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, 25)

	p := NewProcessor(100, 20, 10)
	count, err := p.CountFiles(dir, nil, nil)
	require.NoError(t, err)
	// The walk stops early rather than erroring
	assert.Equal(t, 11, count)
}

func TestProcessor_CountFiles_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, 250)

	p := NewProcessor(100, 20, 10000)
	_, err := p.CountFiles(dir, nil, func() bool { return true })
	require.Error(t, err)
	assert.True(t, semerr.IsCancelled(err))
}

func TestProcessor_CollectItems(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, 30)

	var reports []int
	p := NewProcessor(100, 20, 10000)
	items, err := p.CollectItems(dir, nil, nil, func(processed int) {
		reports = append(reports, processed)
	})
	require.NoError(t, err)
	assert.Len(t, items, 30)
	// Progress reported every 10 files
	assert.Equal(t, []int{10, 20, 30}, reports)
}

func TestProcessor_CollectItems_CancelledPerFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, 5)

	p := NewProcessor(100, 20, 10000)
	_, err := p.CollectItems(dir, nil, func() bool { return true }, nil)
	require.Error(t, err)
	assert.True(t, semerr.IsCancelled(err))
}
