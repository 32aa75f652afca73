package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semidx.log")

	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("hello log\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello log\n", string(data))
}

func TestRotatingWriter_RotatesAtMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semidx.log")

	// 1MB max; write two chunks that together exceed it
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	chunk := strings.Repeat("x", 700*1024)
	_, err = w.Write([]byte(chunk))
	require.NoError(t, err)
	_, err = w.Write([]byte(chunk))
	require.NoError(t, err)

	// Original content moved aside, new file holds the second chunk
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(chunk)), info.Size())
}

func TestSetup_CreatesLoggerAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semidx.log")
	cfg := Config{
		Level:     "debug",
		FilePath:  path,
		MaxSizeMB: 1,
		MaxFiles:  2,
	}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("indexing started", "path", "/tmp/project")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"indexing started"`)
	assert.Contains(t, string(data), `"path":"/tmp/project"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"garbage", "INFO"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in).String(), "level %q", tt.in)
	}
}
