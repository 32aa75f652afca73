// Package client wires the knowledge base together: configuration,
// embedder, context registry, and background operations behind one
// facade the CLI talks to.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/semidx/semidx/internal/config"
	"github.com/semidx/semidx/internal/embed"
	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/knowledge"
	"github.com/semidx/semidx/internal/operations"
	"github.com/semidx/semidx/internal/pattern"
	"github.com/semidx/semidx/internal/processor"
)

// Client is the top-level entry point for indexing and searching.
type Client struct {
	cfg      *config.Config
	embedder embed.Embedder
	contexts *knowledge.Manager
	ops      *operations.Manager
	creator  *knowledge.Creator
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
}

// AddOptions customizes a directory indexing request. Zero values fall
// back to defaults derived from the path and configuration.
type AddOptions struct {
	Name          string
	Description   string
	EmbeddingType embed.EmbeddingType
	Include       []string
	Exclude       []string
	Persistent    bool
}

// New builds a client from configuration: embedder (per provider
// settings), context registry rooted at the configured base directory
// with persisted contexts loaded, and an empty operation manager.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	embedder, err := embed.NewEmbedder(ctx, embed.ParseProvider(cfg.Embeddings.Provider), cfg.Embeddings.Model)
	if err != nil {
		return nil, err
	}

	contexts, err := knowledge.NewManager(cfg.Index.BaseDir)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	if err := contexts.LoadPersistentContexts(); err != nil {
		_ = contexts.Close()
		_ = embedder.Close()
		return nil, err
	}

	maxConcurrent := cfg.Operations.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = operations.MaxConcurrentOperations
	}

	return &Client{
		cfg:      cfg,
		embedder: embedder,
		contexts: contexts,
		ops:      operations.NewManager(),
		creator:  knowledge.NewCreator(contexts),
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// Embedder returns the active embedder.
func (c *Client) Embedder() embed.Embedder {
	return c.embedder
}

// Contexts returns all registered context descriptors.
func (c *Client) Contexts() []knowledge.ContextDescriptor {
	return c.contexts.Contexts()
}

// AddDirectory validates the path and starts a background indexing
// operation, returning its handle immediately. Progress, cancellation,
// and the final outcome are observable through the handle and Status.
func (c *Client) AddDirectory(path string, opts AddOptions) (*operations.Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, semerr.InvalidPath(path, err).
			WithSuggestion("Check that the directory exists and is readable")
	}
	if !info.IsDir() {
		return nil, semerr.InvalidPath(path, nil).
			WithSuggestion("Only directories can be indexed")
	}

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, semerr.InvalidPath(path, err)
	}
	if err := c.contexts.CheckPathExists(canonical, c.ops); err != nil {
		return nil, err
	}

	include := append(append([]string{}, c.cfg.Paths.Include...), opts.Include...)
	exclude := append(append([]string{}, c.cfg.Paths.Exclude...), opts.Exclude...)
	filter, err := pattern.NewFilter(include, exclude)
	if err != nil {
		return nil, err
	}

	if opts.Name == "" {
		opts.Name = filepath.Base(canonical)
	}
	if opts.Description == "" {
		opts.Description = fmt.Sprintf("Knowledge context for %s", opts.Name)
	}
	if opts.EmbeddingType == "" {
		opts.EmbeddingType = embed.EmbeddingTypeBest
	}

	handle := c.ops.Register(operations.OpIndexing, canonical)
	handle.Progress.TrySetMessage("Starting indexing operation...")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runIndexing(handle, canonical, filter, opts)
	}()

	return handle, nil
}

// runIndexing is the background indexing pipeline: acquire a
// concurrency slot, count files, collect items, create the context,
// and register its descriptor.
func (c *Client) runIndexing(handle *operations.Handle, canonical string, filter *pattern.Filter, opts AddOptions) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-handle.Token.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	handle.Progress.TrySetMessage("Waiting for an indexing slot...")
	if err := c.sem.Acquire(ctx, 1); err != nil {
		c.failOperation(handle, semerr.Cancelled("Operation cancelled by user"))
		return
	}
	defer c.sem.Release(1)

	proc := processor.NewProcessor(c.cfg.Index.ChunkSize, c.cfg.Index.ChunkOverlap, c.cfg.Index.MaxFiles)
	cancelled := handle.Token.IsCancelled

	handle.Progress.TrySetMessage("Counting files...")
	count, err := proc.CountFiles(canonical, filter, cancelled)
	if err != nil {
		c.failOperation(handle, err)
		return
	}
	if c.cfg.Index.MaxFiles > 0 && count > c.cfg.Index.MaxFiles {
		c.failOperation(handle, semerr.OperationFailed(
			fmt.Sprintf("directory exceeds the %d file limit", c.cfg.Index.MaxFiles), nil))
		return
	}

	handle.Progress.TryUpdate(0, uint64(count), fmt.Sprintf("Starting indexing (%d files)", count))
	items, err := proc.CollectItems(canonical, filter, cancelled, func(processed int) {
		handle.Progress.TryUpdate(uint64(processed), uint64(count),
			fmt.Sprintf("Indexing files (%d/%d)", processed, count))
	})
	if err != nil {
		c.failOperation(handle, err)
		return
	}

	contextID := uuid.New().String()
	contextDir := filepath.Join(c.contexts.BaseDir(), contextID)
	id, err := c.creator.CreateContext(ctx, contextDir, items, opts.EmbeddingType, handle, c.embedder)
	if err != nil {
		c.failOperation(handle, err)
		return
	}

	desc := knowledge.ContextDescriptor{
		ID:            id,
		Name:          opts.Name,
		Description:   opts.Description,
		CreatedAt:     handle.StartedAt.UTC(),
		SourcePath:    canonical,
		EmbeddingType: opts.EmbeddingType,
		ItemCount:     len(items),
		Persistent:    opts.Persistent,
	}
	if err := c.contexts.AddDescriptor(desc); err != nil {
		c.failOperation(handle, err)
		return
	}

	handle.Progress.Update(uint64(count), uint64(count),
		fmt.Sprintf("Indexing complete (%d items)", len(items)))
	slog.Info("indexing finished",
		slog.String("context_id", id),
		slog.String("path", canonical),
		slog.Int("items", len(items)))
}

// failOperation records a terminal message on the handle so status
// classification and eviction pick it up. Cancellation keeps the
// message written by Cancel.
func (c *Client) failOperation(handle *operations.Handle, err error) {
	if semerr.IsCancelled(err) {
		slog.Info("indexing cancelled", slog.String("operation_id", handle.ShortID()))
		if msg := handle.Progress.Snapshot().Message; msg == "" {
			handle.Progress.SetMessage("Operation cancelled by user")
		}
		return
	}
	handle.Progress.SetMessage(fmt.Sprintf("Indexing failed: %v", err))
	slog.Error("indexing failed",
		slog.String("operation_id", handle.ShortID()),
		slog.String("error", err.Error()))
}

// SearchAll queries every context, best-matching context first.
func (c *Client) SearchAll(ctx context.Context, query string, limit int) ([]knowledge.ContextResults, error) {
	if query == "" {
		return nil, semerr.New(semerr.ErrCodeQueryEmpty, "search query must not be empty", nil)
	}
	return c.contexts.SearchAll(ctx, query, c.effectiveLimit(limit), c.embedder)
}

// SearchContext queries one context by id.
func (c *Client) SearchContext(ctx context.Context, contextID, query string, limit int) ([]knowledge.SearchResult, error) {
	if query == "" {
		return nil, semerr.New(semerr.ErrCodeQueryEmpty, "search query must not be empty", nil)
	}
	return c.contexts.SearchContext(ctx, contextID, query, c.effectiveLimit(limit), c.embedder)
}

func (c *Client) effectiveLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	if c.cfg.Index.MaxResults > 0 {
		return c.cfg.Index.MaxResults
	}
	return 20
}

// Status reports context counts plus the state of every tracked
// operation.
func (c *Client) Status() operations.SystemStatus {
	total, persistent, volatile := c.contexts.Counts()
	return c.ops.Status(total, persistent, volatile)
}

// Cancel cancels an operation by full or short id.
func (c *Client) Cancel(idStr string) (string, error) {
	if id, err := uuid.Parse(idStr); err == nil {
		return c.ops.Cancel(id)
	}
	if id, ok := c.ops.FindByShortID(idStr); ok {
		return c.ops.Cancel(id)
	}
	return "", semerr.OperationNotFound(idStr)
}

// CancelMostRecent cancels the most recently started operation.
func (c *Client) CancelMostRecent() (string, error) {
	return c.ops.CancelMostRecent()
}

// CancelAll cancels every tracked operation.
func (c *Client) CancelAll() string {
	return c.ops.CancelAll()
}

// RemoveByID removes a context by id.
func (c *Client) RemoveByID(id string) error {
	return c.contexts.RemoveContext(id)
}

// RemoveByName removes a context by name.
func (c *Client) RemoveByName(name string) error {
	desc, ok := c.contexts.GetByName(name)
	if !ok {
		return semerr.ContextNotFound(name)
	}
	return c.contexts.RemoveContext(desc.ID)
}

// RemoveByPath removes the context indexed from a source path.
func (c *Client) RemoveByPath(path string) error {
	desc, ok := c.contexts.GetByPath(path)
	if !ok {
		return semerr.ContextNotFound(path)
	}
	return c.contexts.RemoveContext(desc.ID)
}

// Clear cancels all operations and removes every context, returning
// the number removed.
func (c *Client) Clear() (int, error) {
	c.ops.CancelAll()
	c.wg.Wait()
	return c.contexts.ClearAll()
}

// WaitForOperations blocks until all background operations finish.
func (c *Client) WaitForOperations() {
	c.wg.Wait()
}

// Close waits for background work, then releases the embedder and the
// context registry.
func (c *Client) Close() error {
	c.ops.CancelAll()
	c.wg.Wait()

	if err := c.embedder.Close(); err != nil {
		slog.Warn("embedder close failed", slog.String("error", err.Error()))
	}
	return c.contexts.Close()
}
