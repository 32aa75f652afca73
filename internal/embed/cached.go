package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEmbeddingCacheSize is the cache capacity used when no size is
// given. At 256 dimensions * 4 bytes * 1000 entries this is about 1MB.
const DefaultEmbeddingCacheSize = 1000

// CachedEmbedder memoizes embeddings from an inner Embedder in an LRU
// cache keyed by text and model. Repeated queries skip the provider
// entirely, which matters for Ollama round trips.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU cache of the given
// capacity. Non-positive sizes fall back to DefaultEmbeddingCacheSize.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// NewCachedEmbedderWithDefaults wraps inner with a default-size cache.
func NewCachedEmbedderWithDefaults(inner Embedder) *CachedEmbedder {
	return NewCachedEmbedder(inner, DefaultEmbeddingCacheSize)
}

// cacheKey hashes text together with the model name so a model switch
// never serves stale vectors.
func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text, computing and caching it on
// a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch serves cached texts from memory and sends only the misses
// to the inner embedder in a single batch, preserving input order.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))

	type miss struct {
		pos int
		key string
	}
	var misses []miss
	var missTexts []string
	for i, text := range texts {
		key := c.cacheKey(text)
		if vec, ok := c.cache.Get(key); ok {
			results[i] = vec
			continue
		}
		misses = append(misses, miss{pos: i, key: key})
		missTexts = append(missTexts, text)
	}

	if len(misses) == 0 {
		return results, nil
	}

	computed, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, m := range misses {
		results[m.pos] = computed[j]
		c.cache.Add(m.key, computed[j])
	}
	return results, nil
}

// Dimensions reports the inner embedder's vector size.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// ModelName reports the inner embedder's model identifier.
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Provider reports the inner embedder's backend kind.
func (c *CachedEmbedder) Provider() ProviderType { return c.inner.Provider() }

// Available reports whether the inner embedder is ready.
func (c *CachedEmbedder) Available(ctx context.Context) bool { return c.inner.Available(ctx) }

// Close closes the inner embedder. Cached vectors are dropped with the
// process.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }

// Inner exposes the wrapped embedder for callers needing
// provider-specific features outside the Embedder interface.
func (c *CachedEmbedder) Inner() Embedder { return c.inner }
