package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/store"
)

// SemanticContext binds a list of vector data points to an HNSW index
// and a JSON file on disk. The index is always derivable from the data
// points; every mutation rebuilds it before the next search.
type SemanticContext struct {
	mu         sync.Mutex
	dataPoints []DataPoint
	index      *store.VectorIndex // nil until first rebuild
	byID       map[uint64]int     // data point id -> slice position
	dataPath   string
}

// NewSemanticContext creates a context backed by dataPath, creating
// parent directories as needed. If the file exists, its data points are
// loaded and the index rebuilt immediately.
func NewSemanticContext(dataPath string) (*SemanticContext, error) {
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return nil, semerr.IOError("failed to create context directory", err)
	}

	c := &SemanticContext{
		dataPath: dataPath,
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

// RebuildIndex discards the current index and rebuilds it from the
// stored data points in order. The only path that yields a queryable
// index.
func (c *SemanticContext) RebuildIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildIndexLocked()
}

func (c *SemanticContext) rebuildIndexLocked() error {
	if c.index != nil {
		_ = c.index.Close()
		c.index = nil
	}
	c.byID = make(map[uint64]int, len(c.dataPoints))

	if len(c.dataPoints) == 0 {
		return nil
	}

	dims := len(c.dataPoints[0].Vector)
	if dims == 0 {
		// Vector-less points cannot be indexed; search stays empty
		for i, p := range c.dataPoints {
			c.byID[p.ID] = i
		}
		return nil
	}

	index, err := store.NewVectorIndex(store.DefaultVectorConfig(dims))
	if err != nil {
		return semerr.OperationFailed("failed to create vector index", err)
	}

	ids := make([]uint64, len(c.dataPoints))
	vectors := make([][]float32, len(c.dataPoints))
	for i, p := range c.dataPoints {
		ids[i] = p.ID
		vectors[i] = p.Vector
		c.byID[p.ID] = i
	}

	if err := index.Add(ids, vectors); err != nil {
		_ = index.Close()
		return semerr.OperationFailed("failed to build vector index", err)
	}

	c.index = index
	return nil
}

// AddDataPoints appends points and rebuilds the index. Returns the
// number added.
func (c *SemanticContext) AddDataPoints(points []DataPoint) (int, error) {
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

// Save serializes the data points (never the index) to the data path,
// overwriting. Callers decide when to persist; there is no auto-save.
func (c *SemanticContext) Save() error {
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

// Search returns the top matches for a query vector, or an empty slice
// when no index has been built. Never errors on an empty context.
func (c *SemanticContext) Search(queryVector []float32, limit int) ([]SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == nil {
		return nil, nil
	}

	matches, err := c.index.Search(queryVector, limit)
	if err != nil {
		return nil, semerr.OperationFailed("vector search failed", err)
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		pos, ok := c.byID[m.ID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			Point: c.dataPoints[pos],
			Score: float64(m.Score),
		})
	}
	return results, nil
}

// DataPoints returns a copy of the stored data points.
func (c *SemanticContext) DataPoints() []DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]DataPoint, len(c.dataPoints))
	copy(out, c.dataPoints)
	return out
}

// Count returns the number of stored data points.
func (c *SemanticContext) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dataPoints)
}

// Close releases the underlying index.
func (c *SemanticContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index != nil {
		err := c.index.Close()
		c.index = nil
		return err
	}
	return nil
}
