package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves /api/tags and /api/embed like an Ollama server with
// one installed model returning fixed-dimension embeddings.
func fakeOllama(t *testing.T, model string, dims int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaModelListResponse{
			Models: []ollamaModelInfo{{Name: model}},
		})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		count := 1
		if texts, ok := req.Input.([]any); ok {
			count = len(texts)
		}
		embeddings := make([][]float64, count)
		for i := range embeddings {
			vec := make([]float64, dims)
			if dims > 0 {
				vec[0] = 1.0
			}
			embeddings[i] = vec
		}
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Model: req.Model, Embeddings: embeddings})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_HealthCheckAndDetection(t *testing.T) {
	srv := fakeOllama(t, "nomic-embed-text:latest", 384)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	// Model resolved through base-name matching; dimensions detected
	// from a probe embedding.
	assert.Equal(t, "nomic-embed-text:latest", e.ModelName())
	assert.Equal(t, 384, e.Dimensions())
	assert.True(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_FallbackModel(t *testing.T) {
	srv := fakeOllama(t, "all-minilm", 256)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.Model = "not-installed"

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "all-minilm", e.ModelName())
}

func TestOllamaEmbedder_NoModelAvailable(t *testing.T) {
	srv := fakeOllama(t, "llama3", 0)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.Model = "not-installed"
	cfg.FallbackModels = []string{"also-missing"}

	_, err := NewOllamaEmbedder(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedding model available")
}

func TestOllamaEmbedder_EmbedAndBatch(t *testing.T) {
	srv := fakeOllama(t, "nomic-embed-text", 8)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer e.Close()

	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vec, 8)

	// Whitespace input short-circuits to a zero vector.
	zero, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), zero)

	batch, err := e.EmbedBatch(context.Background(), []string{"one", "", "three"})
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, make([]float32, 8), batch[1])
	assert.Len(t, batch[0], 8)
}

func TestOllamaEmbedder_ClosedRejectsCalls(t *testing.T) {
	cfg := DefaultOllamaConfig()
	cfg.SkipHealthCheck = true
	cfg.Dimensions = 8

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = e.Embed(context.Background(), "text")
	assert.Error(t, err)
	assert.False(t, e.Available(context.Background()))
}
