// Package config loads semidx configuration from YAML files and the
// environment.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/semidx/config.yaml)
//  3. Project config (.semidx.yaml in the target directory)
//  4. Environment variables (SEMIDX_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete semidx configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" json:"paths"`
	Index      IndexConfig      `yaml:"index" json:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Operations OperationsConfig `yaml:"operations" json:"operations"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// PathsConfig configures which paths to include and exclude.
// Patterns are doublestar globs; empty include means include everything.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IndexConfig configures chunking and index storage.
type IndexConfig struct {
	// BaseDir is the root directory for persisted contexts.
	// Defaults to ~/.semidx.
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// ChunkSize is the number of words per text chunk.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`

	// ChunkOverlap is the number of words shared between adjacent chunks.
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`

	// MaxFiles caps how many files a single indexing operation will touch.
	// Zero means unlimited.
	MaxFiles int `yaml:"max_files" json:"max_files"`

	// MaxResults is the default search result limit.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder backend: "static", "ollama", "mock",
	// or empty for auto-detection (Ollama if reachable, static otherwise).
	Provider string `yaml:"provider" json:"provider"`

	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`

	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// OperationsConfig configures background operation handling.
type OperationsConfig struct {
	// MaxConcurrent is the ceiling on simultaneously running
	// indexing operations.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// defaultExcludePatterns are always excluded.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/go.sum",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Index: IndexConfig{
			BaseDir:      DefaultBaseDir(),
			ChunkSize:    100,
			ChunkOverlap: 20,
			MaxFiles:     10000,
			MaxResults:   20,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "", // Empty triggers auto-detection: Ollama -> static
			Model:      "",
			Dimensions: 0, // Auto-detect from embedder
			BatchSize:  32,
			OllamaHost: "", // Empty uses default http://localhost:11434
			CacheSize:  1000,
		},
		Operations: OperationsConfig{
			MaxConcurrent: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultBaseDir returns the default knowledge base directory (~/.semidx).
// Falls back to temp directory if home directory is unavailable.
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".semidx")
	}
	return filepath.Join(home, ".semidx")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/semidx/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/semidx/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "semidx", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "semidx", "config.yaml")
	}
	return filepath.Join(home, ".config", "semidx", "config.yaml")
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration for the given project directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .semidx.yaml or .semidx.yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".semidx.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".semidx.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Paths
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		// Merge with defaults rather than replace
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	// Index
	if other.Index.BaseDir != "" {
		c.Index.BaseDir = other.Index.BaseDir
	}
	if other.Index.ChunkSize != 0 {
		c.Index.ChunkSize = other.Index.ChunkSize
	}
	if other.Index.ChunkOverlap != 0 {
		c.Index.ChunkOverlap = other.Index.ChunkOverlap
	}
	if other.Index.MaxFiles != 0 {
		c.Index.MaxFiles = other.Index.MaxFiles
	}
	if other.Index.MaxResults != 0 {
		c.Index.MaxResults = other.Index.MaxResults
	}

	// Embeddings
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	// Operations
	if other.Operations.MaxConcurrent != 0 {
		c.Operations.MaxConcurrent = other.Operations.MaxConcurrent
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// applyEnvOverrides applies SEMIDX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEMIDX_BASE_DIR"); v != "" {
		c.Index.BaseDir = v
	}
	if v := os.Getenv("SEMIDX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.ChunkSize = n
		}
	}
	if v := os.Getenv("SEMIDX_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Index.ChunkOverlap = n
		}
	}
	if v := os.Getenv("SEMIDX_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Index.MaxFiles = n
		}
	}
	if v := os.Getenv("SEMIDX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	// SEMIDX_EMBEDDER is an alias for SEMIDX_EMBEDDINGS_PROVIDER
	if v := os.Getenv("SEMIDX_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SEMIDX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SEMIDX_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("SEMIDX_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Operations.MaxConcurrent = n
		}
	}
	if v := os.Getenv("SEMIDX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or a .semidx.yaml/.yml file by walking up
// the directory tree. Returns the start directory if nothing is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".semidx.yaml")) ||
			fileExists(filepath.Join(currentDir, ".semidx.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 {
		return fmt.Errorf("index.chunk_overlap must be non-negative, got %d", c.Index.ChunkOverlap)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be smaller than chunk_size, got %d >= %d",
			c.Index.ChunkOverlap, c.Index.ChunkSize)
	}
	if c.Index.MaxFiles < 0 {
		return fmt.Errorf("index.max_files must be non-negative, got %d", c.Index.MaxFiles)
	}
	if c.Index.MaxResults < 0 {
		return fmt.Errorf("index.max_results must be non-negative, got %d", c.Index.MaxResults)
	}

	if c.Embeddings.Provider != "" { // Empty string triggers auto-detection
		validProviders := map[string]bool{"static": true, "ollama": true, "mock": true}
		if !validProviders[strings.ToLower(c.Embeddings.Provider)] {
			return fmt.Errorf("embeddings.provider must be 'static', 'ollama', 'mock', or empty (auto-detect), got %s",
				c.Embeddings.Provider)
		}
	}

	if c.Operations.MaxConcurrent <= 0 {
		return fmt.Errorf("operations.max_concurrent must be positive, got %d", c.Operations.MaxConcurrent)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
