// Package knowledge manages indexed contexts: durable data-point
// collections bound to a BM25 or vector index, a context registry with
// persistent metadata, and the creator that turns file items into
// searchable contexts.
package knowledge

import (
	"time"

	"github.com/semidx/semidx/internal/embed"
)

// Data file names inside a context directory.
const (
	SemanticDataFile = "data.json"
	BM25DataFile     = "data.bm25.json"
	ContextsFile     = "contexts.json"
)

// DefaultBM25Score is the avgdl tuning value used when reloading
// persisted BM25 contexts.
const DefaultBM25Score = 100.0

// CreatorBM25Avgdl is the avgdl tuning value for freshly created BM25
// contexts.
const CreatorBM25Avgdl = 5.0

// bm25VectorDimensions is the zero-vector length used when BM25 results
// are hydrated into DataPoints for a uniform search result shape.
const bm25VectorDimensions = 384

// DataPoint is one semantic-search unit: a payload plus its embedding.
// Immutable once created; owned by the context holding it.
type DataPoint struct {
	ID      uint64         `json:"id"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
}

// BM25DataPoint is the lexical analogue of DataPoint; content instead
// of a vector.
type BM25DataPoint struct {
	ID      uint64         `json:"id"`
	Payload map[string]any `json:"payload"`
	Content string         `json:"content"`
}

// SearchResult pairs a data point with its relevance score.
type SearchResult struct {
	Point DataPoint `json:"point"`
	Score float64   `json:"score"`
}

// ContextResults holds one context's search results.
type ContextResults struct {
	ContextID string         `json:"context_id"`
	Results   []SearchResult `json:"results"`
}

// ContextDescriptor is the persisted metadata record for a context,
// stored in contexts.json.
type ContextDescriptor struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	CreatedAt     time.Time           `json:"created_at"`
	SourcePath    string              `json:"source_path,omitempty"`
	EmbeddingType embed.EmbeddingType `json:"embedding_type"`
	ItemCount     int                 `json:"item_count"`
	Persistent    bool                `json:"persistent"`
}
