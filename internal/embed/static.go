package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// StaticEmbedder produces deterministic hash-based vectors with no
// network or model download. Semantic quality is reduced; the point is
// a working offline fallback when Ollama is absent.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*StaticEmbedder)(nil)

// Feature weights. Word tokens dominate, character trigrams add
// resilience to typos and partial identifiers.
const (
	staticTokenWeight = 0.7
	staticNgramWeight = 0.3
	staticNgramSize   = 3
)

// staticStopWords drops language keywords that carry no topical signal
// in source code.
var staticStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

var staticWordRegexp = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed hashes text features into a fixed-size unit vector. Whitespace
// input yields a zero vector.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, StaticDimensions), nil
	}

	vec := make([]float32, StaticDimensions)
	for _, token := range staticTokens(trimmed) {
		vec[featureSlot(token)] += staticTokenWeight
	}
	compact := compactAlnum(trimmed)
	for _, gram := range slidingNgrams(compact, staticNgramSize) {
		vec[featureSlot(gram)] += staticNgramWeight
	}

	return normalizeVector(vec), nil
}

// EmbedBatch embeds each text independently.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the fixed static vector size.
func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

// ModelName identifies the hash-based model.
func (e *StaticEmbedder) ModelName() string { return "static" }

// Provider identifies the backend kind.
func (e *StaticEmbedder) Provider() ProviderType { return ProviderStatic }

// Available is true until Close is called; there is no external
// dependency to probe.
func (e *StaticEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close marks the embedder unusable.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *StaticEmbedder) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("embedder is closed")
	}
	return nil
}

// staticTokens extracts lowercased, stop-word-filtered tokens, splitting
// snake_case and camelCase identifiers into their parts.
func staticTokens(text string) []string {
	var tokens []string
	for _, word := range staticWordRegexp.FindAllString(text, -1) {
		pieces := []string{word}
		if strings.Contains(word, "_") {
			pieces = strings.Split(word, "_")
		}
		for _, piece := range pieces {
			for _, part := range splitCaseBoundaries(piece) {
				lower := strings.ToLower(part)
				if lower != "" && !staticStopWords[lower] {
					tokens = append(tokens, lower)
				}
			}
		}
	}
	return tokens
}

// splitCaseBoundaries breaks an identifier at lower-to-upper transitions
// and at the end of acronym runs.
func splitCaseBoundaries(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		boundary := unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]))
		if boundary && i > start {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

// compactAlnum lowercases text and strips everything that is not a
// letter or digit, the shape trigrams are drawn from.
func compactAlnum(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// slidingNgrams returns every n-byte window of text.
func slidingNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	grams := make([]string, 0, len(text)-n+1)
	for i := 0; i+n <= len(text); i++ {
		grams = append(grams, text[i:i+n])
	}
	return grams
}

// featureSlot maps a feature string to a vector index with FNV-64.
func featureSlot(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(StaticDimensions))
}
