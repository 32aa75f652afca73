package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// OllamaEmbedder generates embeddings through a local Ollama server.
// Requests ride on a small pooled transport; timeouts scale between a
// warm value and a cold value because Ollama unloads idle models and
// the next request then pays the full model load.
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig
	modelName string
	dims      int

	mu       sync.RWMutex
	closed   bool
	lastCall time.Time
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder connects to Ollama, resolves an installed embedding
// model (primary first, then fallbacks), and probes the vector size
// unless cfg.Dimensions pins it. SkipHealthCheck bypasses both steps.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	cfg.applyDefaults()

	// Idle connections are dropped after 10s rather than the net/http
	// default 90s; CLI runs are short-lived.
	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}

	e := &OllamaEmbedder{
		// No Client.Timeout; per-attempt contexts carry the warm/cold
		// deadline instead.
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		modelName: cfg.Model,
		dims:      cfg.Dimensions,
	}

	if cfg.SkipHealthCheck {
		return e, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, DefaultColdTimeout)
	defer cancel()

	model, err := e.resolveModel(checkCtx)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("failed to connect to Ollama or find model: %w", err)
	}
	e.modelName = model

	if e.dims == 0 {
		probe, err := e.requestEmbeddings(checkCtx, []string{"dimension probe"})
		if err != nil || len(probe) == 0 || len(probe[0]) == 0 {
			transport.CloseIdleConnections()
			if err == nil {
				err = fmt.Errorf("empty embedding returned")
			}
			return nil, fmt.Errorf("failed to detect embedding dimensions: %w", err)
		}
		e.dims = len(probe[0])
	}

	return e, nil
}

// Embed returns the embedding for one text. Whitespace-only input
// yields a zero vector without touching the server.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dims), nil
	}

	vecs, err := e.embedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in configured batch sizes. Blank entries get
// zero vectors; positions in the result match the input.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.ensureOpen(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var positions []int
	var pending []string
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.dims)
			continue
		}
		positions = append(positions, i)
		pending = append(pending, text)
	}

	for start := 0; start < len(pending); start += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.config.BatchSize, len(pending))

		vecs, err := e.embedWithRetry(ctx, pending[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		for i, vec := range vecs {
			results[positions[start+i]] = vec
		}
	}

	return results, nil
}

// Dimensions returns the embedding vector size.
func (e *OllamaEmbedder) Dimensions() int { return e.dims }

// ModelName returns the resolved model identifier.
func (e *OllamaEmbedder) ModelName() string { return e.modelName }

// Provider identifies the backend kind.
func (e *OllamaEmbedder) Provider() ProviderType { return ProviderOllama }

// Available reports whether the server is reachable and still lists the
// resolved model.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	if e.ensureOpen() != nil {
		return false
	}
	models, err := e.listModels(ctx)
	if err != nil {
		return false
	}
	want := strings.ToLower(e.modelName)
	for _, m := range models {
		have := strings.ToLower(m.Name)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return true
		}
	}
	return false
}

// Close marks the embedder unusable and releases pooled connections.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}

func (e *OllamaEmbedder) ensureOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("embedder is closed")
	}
	return nil
}

// embedWithRetry runs a batch request under backoff. Every attempt gets
// a fresh deadline sized by how recently the model served a request.
func (e *OllamaEmbedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	policy := RetryConfig{
		MaxRetries:   e.config.MaxRetries - 1,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}

	var vecs [][]float32
	attempt := 0
	err := WithRetry(ctx, policy, func() error {
		attempt++
		timeout := e.attemptTimeout()
		slog.Debug("embedding_attempt",
			slog.Int("attempt", attempt),
			slog.Duration("timeout", timeout),
			slog.Int("texts_count", len(texts)))

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var err error
		vecs, err = e.requestEmbeddings(attemptCtx, texts)
		if err != nil {
			slog.Debug("embedding_attempt_failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return err
		}
		e.markWarm()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// attemptTimeout picks the cold deadline when the model has been idle
// past Ollama's unload threshold, the warm one otherwise.
func (e *OllamaEmbedder) attemptTimeout() time.Duration {
	e.mu.RLock()
	last := e.lastCall
	e.mu.RUnlock()

	if last.IsZero() || time.Since(last) > ModelUnloadThreshold {
		return DefaultColdTimeout
	}
	return DefaultWarmTimeout
}

func (e *OllamaEmbedder) markWarm() {
	e.mu.Lock()
	e.lastCall = time.Now()
	e.mu.Unlock()
}

// requestEmbeddings performs one /api/embed call. A single text is sent
// as a plain string, multiple texts as an array, matching the API.
func (e *OllamaEmbedder) requestEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}

	payload, err := json.Marshal(ollamaEmbedRequest{Model: e.modelName, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(body))
	}

	var decoded ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	vecs := make([][]float32, len(decoded.Embeddings))
	for i, raw := range decoded.Embeddings {
		vec := make([]float32, len(raw))
		for j, v := range raw {
			vec[j] = float32(v)
		}
		vecs[i] = normalizeVector(vec)
	}
	return vecs, nil
}

// listModels fetches the installed model list from /api/tags.
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]ollamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var decoded ollamaModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return decoded.Models, nil
}

// resolveModel matches the configured model, then each fallback,
// against the installed list. Tags are optional on both sides, so
// "nomic-embed-text" matches "nomic-embed-text:latest".
func (e *OllamaEmbedder) resolveModel(ctx context.Context) (string, error) {
	models, err := e.listModels(ctx)
	if err != nil {
		return "", err
	}

	installed := make(map[string]string)
	for _, m := range models {
		full := strings.ToLower(m.Name)
		installed[full] = m.Name
		base, _, _ := strings.Cut(full, ":")
		if _, ok := installed[base]; !ok {
			installed[base] = m.Name
		}
	}

	candidates := append([]string{e.config.Model}, e.config.FallbackModels...)
	for _, candidate := range candidates {
		name := strings.ToLower(candidate)
		if actual, ok := installed[name]; ok {
			return actual, nil
		}
		base, _, _ := strings.Cut(name, ":")
		if actual, ok := installed[base]; ok {
			return actual, nil
		}
	}

	return "", fmt.Errorf("no embedding model available (tried %s and %v)", e.config.Model, e.config.FallbackModels)
}
