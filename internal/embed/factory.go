package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses the Ollama API for embeddings (default when available)
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings (offline fallback)
	ProviderStatic ProviderType = "static"

	// ProviderMock uses the deterministic mock embedder (tests only)
	ProviderMock ProviderType = "mock"
)

// NewEmbedder creates an embedder based on provider type.
// The SEMIDX_EMBEDDER environment variable overrides the provider:
//   - "ollama": use OllamaEmbedder (requires a running Ollama server)
//   - "static": use StaticEmbedder (offline, reduced quality)
//   - "mock":   use MockEmbedder (deterministic, no model)
//
// An empty provider auto-detects: Ollama if reachable, static otherwise.
//
// Query embedding caching is enabled by default.
// Set SEMIDX_EMBED_CACHE=false to disable caching.
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	if envProvider := os.Getenv("SEMIDX_EMBEDDER"); envProvider != "" {
		provider = ParseProvider(envProvider)
	}

	var embedder Embedder
	var err error

	switch provider {
	case ProviderOllama:
		embedder, err = newOllama(ctx, model)

	case ProviderStatic:
		embedder = NewStaticEmbedder()

	case ProviderMock:
		embedder = NewMockEmbedder()

	default:
		embedder, err = newAutoDetected(ctx, model)
	}

	if err != nil {
		return nil, err
	}

	// Wrap with cache unless disabled
	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}

	return embedder, nil
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("SEMIDX_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// newAutoDetected selects the default embedder with a fallback chain:
// Ollama if a server answers, otherwise the static embedder.
func newAutoDetected(ctx context.Context, model string) (Embedder, error) {
	embedder, err := newOllama(ctx, model)
	if err == nil {
		return embedder, nil
	}
	return NewStaticEmbedder(), nil
}

// newOllama creates an Ollama embedder honoring environment overrides.
// Returns a clear error when the server is unreachable; auto-detection
// callers fall back, explicit callers surface the message.
func newOllama(ctx context.Context, model string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}

	if host := os.Getenv("SEMIDX_OLLAMA_HOST"); host != "" {
		cfg.Host = host
	}
	if modelOverride := os.Getenv("SEMIDX_OLLAMA_MODEL"); modelOverride != "" {
		cfg.Model = modelOverride
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ollama unavailable: %w\n\nTo fix:\n  1. Start Ollama: ollama serve\n  2. Or use BM25-only indexing: semidx add --fast", err)
	}
	return embedder, nil
}

// ParseProvider converts a string to ProviderType
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "ollama":
		return ProviderOllama
	case "static":
		return ProviderStatic
	case "mock":
		return ProviderMock
	default:
		// Empty or unknown means auto-detect
		return ""
	}
}

// String returns the string representation of ProviderType
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all valid provider names
func ValidProviders() []string {
	return []string{
		string(ProviderOllama),
		string(ProviderStatic),
		string(ProviderMock),
	}
}

// IsValidProvider checks if a provider name is valid
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo contains information about an embedder
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder. The cache wrapper
// delegates Provider to its inner embedder, so no unwrapping is needed.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	return EmbedderInfo{
		Provider:   embedder.Provider(),
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}
}

// MustNewEmbedder creates an embedder and panics on failure.
// Use only in tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
