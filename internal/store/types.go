// Package store provides the low-level index engines: a BM25 keyword index
// backed by Bleve and an HNSW vector index. Both engines key entries by
// uint64 ids assigned by the layer above.
package store

import "fmt"

// BM25Match is a single BM25 search result.
type BM25Match struct {
	ID           uint64
	Score        float64
	MatchedTerms []string
}

// BM25Stats provides statistics about the BM25 index.
type BM25Stats struct {
	DocumentCount int
	AvgDocLength  float64
}

// BM25Config configures the BM25 index.
type BM25Config struct {
	// K1 is the term frequency saturation parameter (default: 1.2).
	K1 float64

	// B is the length normalization parameter (default: 0.75).
	B float64

	// AvgDocLength is the expected average document length, persisted as
	// a tuning field alongside the index.
	AvgDocLength float64

	// StopWords is a list of words to filter out during tokenization.
	StopWords []string

	// MinTokenLength is minimum token length to index (default: 2).
	MinTokenLength int
}

// DefaultBM25Config returns default BM25 configuration.
func DefaultBM25Config() BM25Config {
	return BM25Config{
		K1:             1.2,
		B:              0.75,
		AvgDocLength:   10.0,
		StopWords:      DefaultCodeStopWords,
		MinTokenLength: 2,
	}
}

// DefaultCodeStopWords contains programming keywords to filter out.
var DefaultCodeStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}

// VectorMatch is a single vector search result.
type VectorMatch struct {
	ID       uint64  // Entry ID
	Distance float32 // Lower is more similar (0-2 for cosine)
	Score    float32 // Normalized similarity (0-1)
}

// VectorConfig configures the vector index.
type VectorConfig struct {
	// Dimensions is the vector dimension (256 for static, 384+ for
	// model-backed embedders).
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean).
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorConfig returns sensible defaults for the vector index.
func DefaultVectorConfig(dimensions int) VectorConfig {
	return VectorConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   20,
	}
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
