// Package embed provides text embedding backends for semantic indexing.
//
// The static embedder works offline with deterministic hash-based vectors;
// the Ollama embedder talks to a local Ollama server and auto-detects a
// suitable model. Wrappers add LRU caching and retry with backoff.
package embed

import (
	"context"
	"math"
	"strings"
	"time"
)

// Common embedding constants
const (
	// DefaultBatchSize is the default batch size for embedding requests
	DefaultBatchSize = 32

	// MaxBatchSize is the maximum allowed batch size (prevents memory exhaustion)
	MaxBatchSize = 256

	// DefaultWarmTimeout is the timeout for queries when the model is loaded
	DefaultWarmTimeout = 60 * time.Second

	// DefaultColdTimeout is the timeout for the first query when the model
	// may still need loading
	DefaultColdTimeout = 180 * time.Second

	// ModelUnloadThreshold is the duration after which a model is considered
	// "cold"; Ollama unloads models after ~5 minutes of inactivity
	ModelUnloadThreshold = 5 * time.Minute

	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3
)

// Static embedder constants
const (
	// StaticDimensions is the embedding dimension for the static embedder
	StaticDimensions = 256
)

// EmbeddingType selects how a context is indexed.
type EmbeddingType string

const (
	// EmbeddingTypeFast indexes with BM25 only; no vectors are computed.
	EmbeddingTypeFast EmbeddingType = "fast"

	// EmbeddingTypeBest indexes with real embeddings for semantic search.
	EmbeddingTypeBest EmbeddingType = "best"

	// EmbeddingTypeMock uses the deterministic mock embedder (tests only).
	EmbeddingTypeMock EmbeddingType = "mock"
)

// ParseEmbeddingType converts a string to an EmbeddingType.
// Unrecognized values default to Best.
func ParseEmbeddingType(s string) EmbeddingType {
	switch strings.ToLower(s) {
	case "fast", "bm25":
		return EmbeddingTypeFast
	case "mock":
		return EmbeddingTypeMock
	default:
		return EmbeddingTypeBest
	}
}

// String returns the string representation of the embedding type.
func (t EmbeddingType) String() string {
	return string(t)
}

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension
	Dimensions() int

	// ModelName returns the model identifier
	ModelName() string

	// Provider identifies the backend kind
	Provider() ProviderType

	// Available checks if the embedder is ready
	Available(ctx context.Context) bool

	// Close releases resources
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v // Return as-is if zero vector
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
