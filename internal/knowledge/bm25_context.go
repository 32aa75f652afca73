package knowledge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/store"
)

// BM25Context binds a list of lexical data points to a BM25 index and a
// JSON file on disk. Same rebuild discipline as SemanticContext.
type BM25Context struct {
	mu         sync.Mutex
	dataPoints []BM25DataPoint
	index      *store.BM25Index // nil until first rebuild
	byID       map[uint64]int
	dataPath   string
	avgdl      float64
}

// NewBM25Context creates a context backed by dataPath with the given
// avgdl tuning value, loading and indexing existing data if present.
func NewBM25Context(dataPath string, avgdl float64) (*BM25Context, error) {
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return nil, semerr.IOError("failed to create context directory", err)
	}

	c := &BM25Context{
		dataPath: dataPath,
		avgdl:    avgdl,
		byID:     make(map[uint64]int),
	}

	if data, err := os.ReadFile(dataPath); err == nil {
		if err := json.Unmarshal(data, &c.dataPoints); err != nil {
			return nil, semerr.DeserializationError("malformed context data file "+dataPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, semerr.IOError("failed to read context data file", err)
	}

	if len(c.dataPoints) > 0 {
		if err := c.rebuildIndexLocked(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RebuildIndex discards the current index and re-adds every data point
// in stored order.
func (c *BM25Context) RebuildIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildIndexLocked()
}

func (c *BM25Context) rebuildIndexLocked() error {
	if c.index != nil {
		_ = c.index.Close()
		c.index = nil
	}

	cfg := store.DefaultBM25Config()
	cfg.AvgDocLength = c.avgdl

	index, err := store.NewBM25Index(cfg)
	if err != nil {
		return semerr.OperationFailed("failed to create BM25 index", err)
	}

	c.byID = make(map[uint64]int, len(c.dataPoints))
	for i, p := range c.dataPoints {
		if err := index.Add(p.ID, p.Content); err != nil {
			_ = index.Close()
			return semerr.OperationFailed("failed to build BM25 index", err)
		}
		c.byID[p.ID] = i
	}

	c.index = index
	return nil
}

// AddDataPoints appends points and rebuilds the index. Returns the
// number added.
func (c *BM25Context) AddDataPoints(points []BM25DataPoint) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dataPoints = append(c.dataPoints, points...)
	if len(c.dataPoints) > 0 {
		if err := c.rebuildIndexLocked(); err != nil {
			return 0, err
		}
	}
	return len(points), nil
}

// Save serializes the data points to the data path, overwriting.
func (c *BM25Context) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(c.dataPoints)
	if err != nil {
		return semerr.OperationFailed("failed to serialize data points", err)
	}
	if err := os.WriteFile(c.dataPath, data, 0o644); err != nil {
		return semerr.IOError("failed to write context data file", err)
	}
	return nil
}

// Search returns BM25-ranked results for a query, hydrating each hit
// into a DataPoint with a zero vector so results share one shape with
// semantic search. Empty context returns empty results, never an error.
func (c *BM25Context) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == nil {
		return nil, nil
	}

	matches, err := c.index.Search(ctx, query, limit)
	if err != nil {
		return nil, semerr.OperationFailed("BM25 search failed", err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		pos, ok := c.byID[m.ID]
		if !ok {
			continue
		}
		point := c.dataPoints[pos]
		results = append(results, SearchResult{
			Point: DataPoint{
				ID:      point.ID,
				Payload: point.Payload,
				Vector:  make([]float32, bm25VectorDimensions),
			},
			Score: m.Score,
		})
	}
	return results, nil
}

// DataPoints returns a copy of the stored data points.
func (c *BM25Context) DataPoints() []BM25DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]BM25DataPoint, len(c.dataPoints))
	copy(out, c.dataPoints)
	return out
}

// Count returns the number of stored data points.
func (c *BM25Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dataPoints)
}

// Close releases the underlying index.
func (c *BM25Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index != nil {
		err := c.index.Close()
		c.index = nil
		return err
	}
	return nil
}
