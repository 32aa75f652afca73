package embed

import "time"

const (
	// DefaultOllamaHost is the standard local Ollama endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the preferred embedding model.
	DefaultOllamaModel = "nomic-embed-text"

	// OllamaConnectTimeout bounds the initial health check.
	OllamaConnectTimeout = 5 * time.Second

	// OllamaPoolSize is the HTTP connection pool size.
	OllamaPoolSize = 4
)

// FallbackOllamaModels are tried in order when the primary model is not
// installed.
var FallbackOllamaModels = []string{
	"mxbai-embed-large",
	"all-minilm",
}

// OllamaConfig configures the Ollama embedder. Zero values fall back to
// the package defaults.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string

	// Model is the preferred embedding model name, with or without tag.
	Model string

	// FallbackModels are tried in order when Model is not installed.
	FallbackModels []string

	// Dimensions pins the vector size; 0 means probe the model.
	Dimensions int

	// BatchSize caps texts per /api/embed request.
	BatchSize int

	// ConnectTimeout bounds the initial health check.
	ConnectTimeout time.Duration

	// MaxRetries is the total attempt count for transient failures.
	MaxRetries int

	// PoolSize is the HTTP connection pool size.
	PoolSize int

	// SkipHealthCheck skips server probing, for tests.
	SkipHealthCheck bool
}

// DefaultOllamaConfig returns the standard local-server configuration
// with auto-detected dimensions.
func DefaultOllamaConfig() OllamaConfig {
	cfg := OllamaConfig{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero-valued fields and clamps the batch size.
func (cfg *OllamaConfig) applyDefaults() {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.FallbackModels == nil {
		cfg.FallbackModels = FallbackOllamaModels
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = OllamaConnectTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = OllamaPoolSize
	}
}

// ollamaEmbedRequest is the /api/embed request body. Input is a string
// for a single text or a []string for a batch.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// ollamaEmbedResponse is the /api/embed response body.
type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// ollamaModelListResponse is the /api/tags response body.
type ollamaModelListResponse struct {
	Models []ollamaModelInfo `json:"models"`
}

// ollamaModelInfo describes one installed model.
type ollamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}
