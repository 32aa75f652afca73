package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 100, cfg.Index.ChunkSize)
	assert.Equal(t, 20, cfg.Index.ChunkOverlap)
	assert.Equal(t, 3, cfg.Operations.MaxConcurrent)
	assert.Empty(t, cfg.Paths.Include)
	assert.Contains(t, cfg.Paths.Exclude, "**/node_modules/**")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
version: 1
index:
  chunk_size: 50
  chunk_overlap: 10
paths:
  exclude:
    - "**/*.log"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".semidx.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Index.ChunkSize)
	assert.Equal(t, 10, cfg.Index.ChunkOverlap)
	// Project excludes extend the defaults
	assert.Contains(t, cfg.Paths.Exclude, "**/*.log")
	assert.Contains(t, cfg.Paths.Exclude, "**/.git/**")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "index:\n  chunk_size: 50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".semidx.yaml"), []byte(content), 0o644))

	t.Setenv("SEMIDX_CHUNK_SIZE", "75")
	t.Setenv("SEMIDX_EMBEDDER", "static")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.Index.ChunkSize)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Index.ChunkSize)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".semidx.yaml"), []byte("index: [not a map"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero chunk size", func(c *Config) { c.Index.ChunkSize = 0 }, true},
		{"overlap >= chunk size", func(c *Config) { c.Index.ChunkOverlap = 100 }, true},
		{"negative max files", func(c *Config) { c.Index.MaxFiles = -1 }, true},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "quantum" }, true},
		{"mock provider", func(c *Config) { c.Embeddings.Provider = "mock" }, false},
		{"zero max concurrent", func(c *Config) { c.Operations.MaxConcurrent = 0 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFindProjectRoot_StopsAtMarker(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".semidx.yaml"), []byte("version: 1\n"), 0o644))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".semidx.yaml")

	cfg := NewConfig()
	cfg.Index.ChunkSize = 42
	cfg.Index.ChunkOverlap = 7
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 42, loaded.Index.ChunkSize)
	assert.Equal(t, 7, loaded.Index.ChunkOverlap)
}
