package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/semidx/semidx/internal/embed"
	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/operations"
)

// lockFileName guards the knowledge base directory against concurrent
// processes mutating contexts.json.
const lockFileName = ".semidx.lock"

// Manager owns the context registry: persisted descriptors plus the
// live semantic and BM25 contexts loaded from them. The registry maps
// are guarded for concurrent readers with exclusive writers; each
// context additionally carries its own lock.
type Manager struct {
	mu       sync.RWMutex
	contexts map[string]ContextDescriptor
	semantic map[string]*SemanticContext
	bm25     map[string]*BM25Context
	baseDir  string
	fileLock *flock.Flock
}

// NewManager creates a manager rooted at baseDir, acquiring the base
// directory lock and loading contexts.json if present.
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, semerr.IOError("failed to create knowledge base directory", err)
	}

	fileLock := flock.New(filepath.Join(baseDir, lockFileName))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, semerr.IOError("failed to acquire knowledge base lock", err)
	}
	if !locked {
		return nil, semerr.ConfigError(
			fmt.Sprintf("knowledge base %s is in use by another process", baseDir), nil).
			WithSuggestion("Wait for the other semidx process to finish, or use a different base directory")
	}

	m := &Manager{
		contexts: make(map[string]ContextDescriptor),
		semantic: make(map[string]*SemanticContext),
		bm25:     make(map[string]*BM25Context),
		baseDir:  baseDir,
		fileLock: fileLock,
	}

	contextsPath := filepath.Join(baseDir, ContextsFile)
	if data, err := os.ReadFile(contextsPath); err == nil {
		if err := json.Unmarshal(data, &m.contexts); err != nil {
			_ = fileLock.Unlock()
			return nil, semerr.DeserializationError("malformed contexts metadata file", err)
		}
	} else if !os.IsNotExist(err) {
		_ = fileLock.Unlock()
		return nil, semerr.IOError("failed to read contexts metadata file", err)
	}

	return m, nil
}

// BaseDir returns the knowledge base root directory.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Close releases live contexts and the base directory lock.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.semantic {
		_ = c.Close()
	}
	for _, c := range m.bm25 {
		_ = c.Close()
	}
	m.semantic = make(map[string]*SemanticContext)
	m.bm25 = make(map[string]*BM25Context)

	if m.fileLock != nil {
		return m.fileLock.Unlock()
	}
	return nil
}

// LoadPersistentContexts loads the data files of every persisted
// descriptor. Individual load failures are logged and skipped so one
// corrupt context does not block startup.
func (m *Manager) LoadPersistentContexts() error {
	m.mu.RLock()
	descriptors := make([]ContextDescriptor, 0, len(m.contexts))
	for _, d := range m.contexts {
		descriptors = append(descriptors, d)
	}
	m.mu.RUnlock()

	for _, desc := range descriptors {
		if err := m.loadContext(desc); err != nil {
			slog.Error("failed to load persistent context",
				slog.String("context_id", desc.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (m *Manager) loadContext(desc ContextDescriptor) error {
	contextDir := filepath.Join(m.baseDir, desc.ID)
	if _, err := os.Stat(contextDir); os.IsNotExist(err) {
		return nil
	}

	m.mu.RLock()
	_, haveSemantic := m.semantic[desc.ID]
	_, haveBM25 := m.bm25[desc.ID]
	m.mu.RUnlock()

	if desc.EmbeddingType == embed.EmbeddingTypeFast {
		if haveBM25 {
			return nil
		}
		ctx, err := NewBM25Context(filepath.Join(contextDir, BM25DataFile), DefaultBM25Score)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.bm25[desc.ID] = ctx
		m.mu.Unlock()
		return nil
	}

	if haveSemantic {
		return nil
	}
	ctx, err := NewSemanticContext(filepath.Join(contextDir, SemanticDataFile))
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.semantic[desc.ID] = ctx
	m.mu.Unlock()
	return nil
}

// Contexts returns all descriptors, sorted by creation time.
func (m *Manager) Contexts() []ContextDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ContextDescriptor, 0, len(m.contexts))
	for _, d := range m.contexts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Counts returns total, persistent, and volatile context counts.
func (m *Manager) Counts() (total, persistent, volatile int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total = len(m.contexts)
	for _, d := range m.contexts {
		if d.Persistent {
			persistent++
		}
	}
	return total, persistent, total - persistent
}

// GetByID returns the descriptor for a context id.
func (m *Manager) GetByID(id string) (ContextDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.contexts[id]
	return d, ok
}

// GetByName returns the first descriptor with the given name.
func (m *Manager) GetByName(name string) (ContextDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.contexts {
		if d.Name == name {
			return d, true
		}
	}
	return ContextDescriptor{}, false
}

// GetByPath returns the descriptor whose source path matches, trying
// exact, canonicalized, and separator-normalized comparison.
func (m *Manager) GetByPath(path string) (ContextDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	canonicalInput, _ := filepath.EvalSymlinks(path)

	for _, d := range m.contexts {
		if d.SourcePath == "" {
			continue
		}
		if d.SourcePath == path {
			return d, true
		}
		if canonicalInput != "" {
			if canonicalSource, err := filepath.EvalSymlinks(d.SourcePath); err == nil && canonicalSource == canonicalInput {
				return d, true
			}
		}
		if strings.ReplaceAll(d.SourcePath, "\\", "/") == strings.ReplaceAll(path, "\\", "/") {
			return d, true
		}
	}
	return ContextDescriptor{}, false
}

// CheckPathExists fails when the canonical path is already covered by a
// live indexing operation or an existing context.
func (m *Manager) CheckPathExists(canonicalPath string, ops *operations.Manager) error {
	if ops != nil {
		for _, handle := range ops.Handles() {
			if handle.Type != operations.OpIndexing || handle.Label == "" {
				continue
			}
			opCanonical, err := filepath.EvalSymlinks(handle.Label)
			if err != nil || opCanonical != canonicalPath {
				continue
			}

			info, ok := handle.Progress.TrySnapshot()
			if !ok {
				continue
			}
			msg := strings.ToLower(info.Message)
			terminal := strings.Contains(msg, "cancelled") ||
				strings.Contains(msg, "failed") ||
				strings.Contains(msg, "error") ||
				strings.Contains(msg, "complete")
			if !terminal {
				return semerr.New(semerr.ErrCodeDuplicatePath,
					fmt.Sprintf("Already indexing this path: %s (Operation: %s)", handle.Label, handle.ShortID()), nil)
			}
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.contexts {
		if d.SourcePath == "" {
			continue
		}
		existingCanonical, err := filepath.EvalSymlinks(d.SourcePath)
		if err != nil {
			continue
		}
		if existingCanonical == canonicalPath {
			return semerr.New(semerr.ErrCodeDuplicatePath,
				fmt.Sprintf("Path already exists in knowledge base: %s (Context: %q)", d.SourcePath, d.Name), nil)
		}
	}
	return nil
}

// AddDescriptor registers or replaces a descriptor and persists the
// metadata file.
func (m *Manager) AddDescriptor(desc ContextDescriptor) error {
	m.mu.Lock()
	m.contexts[desc.ID] = desc
	m.mu.Unlock()
	return m.SaveMetadata()
}

// InsertSemanticContext stores a live semantic context for an id.
func (m *Manager) InsertSemanticContext(id string, ctx *SemanticContext) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.semantic[id]; ok {
		_ = old.Close()
	}
	m.semantic[id] = ctx
}

// InsertBM25Context stores a live BM25 context for an id.
func (m *Manager) InsertBM25Context(id string, ctx *BM25Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.bm25[id]; ok {
		_ = old.Close()
	}
	m.bm25[id] = ctx
}

// SearchAll queries every registered context and returns per-context
// results ordered by each context's best score, best first.
func (m *Manager) SearchAll(ctx context.Context, query string, limit int, embedder embed.Embedder) ([]ContextResults, error) {
	descriptors := m.Contexts()

	var all []ContextResults
	for _, desc := range descriptors {
		results, err := m.searchOne(ctx, desc, query, limit, embedder)
		if err != nil {
			return nil, err
		}
		if len(results) > 0 {
			all = append(all, ContextResults{ContextID: desc.ID, Results: results})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Results[0].Score > all[j].Results[0].Score
	})
	return all, nil
}

// SearchContext queries one context by id. Unknown ids fail with a
// not-found error; an indexed-but-empty context returns empty results.
func (m *Manager) SearchContext(ctx context.Context, contextID, query string, limit int, embedder embed.Embedder) ([]SearchResult, error) {
	desc, ok := m.GetByID(contextID)
	if !ok {
		return nil, semerr.ContextNotFound(contextID)
	}
	return m.searchOne(ctx, desc, query, limit, embedder)
}

func (m *Manager) searchOne(ctx context.Context, desc ContextDescriptor, query string, limit int, embedder embed.Embedder) ([]SearchResult, error) {
	if desc.EmbeddingType == embed.EmbeddingTypeFast {
		m.mu.RLock()
		bc := m.bm25[desc.ID]
		m.mu.RUnlock()
		if bc == nil {
			return nil, nil
		}
		return bc.Search(ctx, query, limit)
	}

	m.mu.RLock()
	sc := m.semantic[desc.ID]
	m.mu.RUnlock()
	if sc == nil {
		return nil, nil
	}

	queryVector, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, semerr.EmbeddingError("failed to embed query", err)
	}
	return sc.Search(queryVector, limit)
}

// RemoveContext removes a context by id: descriptor, live context, and
// on-disk directory, then persists the metadata file.
func (m *Manager) RemoveContext(id string) error {
	m.mu.Lock()
	if _, ok := m.contexts[id]; !ok {
		m.mu.Unlock()
		return semerr.ContextNotFound(id)
	}
	delete(m.contexts, id)

	if c, ok := m.semantic[id]; ok {
		_ = c.Close()
		delete(m.semantic, id)
	}
	if c, ok := m.bm25[id]; ok {
		_ = c.Close()
		delete(m.bm25, id)
	}
	m.mu.Unlock()

	contextDir := filepath.Join(m.baseDir, id)
	if _, err := os.Stat(contextDir); err == nil {
		if err := os.RemoveAll(contextDir); err != nil {
			return semerr.OperationFailed("failed to remove context directory", err)
		}
	}

	return m.SaveMetadata()
}

// ClearAll removes every context and wipes the base directory, keeping
// the lock file's directory alive. Returns the number removed.
func (m *Manager) ClearAll() (int, error) {
	m.mu.Lock()
	count := len(m.contexts)
	m.contexts = make(map[string]ContextDescriptor)

	for _, c := range m.semantic {
		_ = c.Close()
	}
	for _, c := range m.bm25 {
		_ = c.Close()
	}
	m.semantic = make(map[string]*SemanticContext)
	m.bm25 = make(map[string]*BM25Context)
	m.mu.Unlock()

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return count, semerr.IOError("failed to list knowledge base directory", err)
	}
	for _, entry := range entries {
		if entry.Name() == lockFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.baseDir, entry.Name())); err != nil {
			return count, semerr.IOError("failed to clear knowledge base directory", err)
		}
	}

	return count, m.SaveMetadata()
}

// SaveMetadata writes the persistent descriptors to contexts.json.
func (m *Manager) SaveMetadata() error {
	m.mu.RLock()
	persistent := make(map[string]ContextDescriptor)
	for id, d := range m.contexts {
		if d.Persistent {
			persistent[id] = d
		}
	}
	m.mu.RUnlock()

	data, err := json.MarshalIndent(persistent, "", "  ")
	if err != nil {
		return semerr.OperationFailed("failed to serialize contexts metadata", err)
	}
	if err := os.WriteFile(filepath.Join(m.baseDir, ContextsFile), data, 0o644); err != nil {
		return semerr.IOError("failed to write contexts metadata file", err)
	}
	return nil
}
