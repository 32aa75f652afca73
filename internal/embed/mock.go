package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// MockDimensions is the embedding dimension for the mock embedder.
const MockDimensions = 384

// MockEmbedder produces deterministic embeddings without any model.
// The same input always yields the same vector, so tests and offline
// indexing runs are reproducible.
type MockEmbedder struct {
	mu     sync.RWMutex
	closed bool
	calls  int
}

// Verify interface implementation at compile time
var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a new mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// Embed generates a deterministic embedding for a single text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.calls++
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, MockDimensions), nil
	}

	// Seed a simple keyed hash sequence so distinct texts spread out
	// while identical texts collide exactly.
	vector := make([]float32, MockDimensions)
	h := fnv.New64a()
	_, _ = h.Write([]byte(trimmed))
	seed := h.Sum64()

	for i := range vector {
		seed = seed*6364136223846793005 + 1442695040888963407
		vector[i] = float32(int64(seed>>33))/float32(1<<31) + 1e-3
	}

	return normalizeVector(vector), nil
}

// EmbedBatch generates deterministic embeddings for multiple texts.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = emb
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return MockDimensions
}

// ModelName returns the model identifier.
func (e *MockEmbedder) ModelName() string {
	return "mock"
}

// Provider identifies the backend kind.
func (e *MockEmbedder) Provider() ProviderType {
	return ProviderMock
}

// Available checks if the embedder is ready (always true until closed).
func (e *MockEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Calls returns how many Embed calls have been made.
func (e *MockEmbedder) Calls() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.calls
}

// Close releases resources.
func (e *MockEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
