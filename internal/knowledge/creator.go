package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/semidx/semidx/internal/embed"
	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/operations"
	"github.com/semidx/semidx/internal/processor"
)

// creationCheckInterval is how many items pass between cancellation
// checks and progress updates during context creation.
const creationCheckInterval = 10

// Creator turns processed file items into a live, registered context.
// Creation is all or nothing: a cancelled or failed run inserts no
// context and leaves no registered state behind.
type Creator struct {
	manager *Manager
}

// NewCreator returns a creator that registers finished contexts with
// the given manager.
func NewCreator(manager *Manager) *Creator {
	return &Creator{manager: manager}
}

// CreateContext builds a context from items under contextDir and
// inserts it into the manager. The context id is the directory base
// name. Fast embedding builds a BM25 context; everything else builds a
// semantic context through the embedder. Save failures are logged, not
// returned, since the in-memory context is already live.
func (cr *Creator) CreateContext(
	ctx context.Context,
	contextDir string,
	items []processor.Item,
	embeddingType embed.EmbeddingType,
	handle *operations.Handle,
	embedder embed.Embedder,
) (string, error) {
	contextID := filepath.Base(contextDir)

	if embeddingType == embed.EmbeddingTypeFast {
		if err := cr.createBM25(ctx, contextDir, contextID, items, handle); err != nil {
			return "", err
		}
		return contextID, nil
	}

	if err := cr.createSemantic(ctx, contextDir, contextID, items, handle, embedder); err != nil {
		return "", err
	}
	return contextID, nil
}

func (cr *Creator) createBM25(
	ctx context.Context,
	contextDir, contextID string,
	items []processor.Item,
	handle *operations.Handle,
) error {
	handle.Progress.TrySetMessage("Creating BM25 context...")
	if handle.Token.IsCancelled() {
		return semerr.Cancelled("Operation was cancelled during BM25 context creation")
	}

	bc, err := NewBM25Context(filepath.Join(contextDir, BM25DataFile), CreatorBM25Avgdl)
	if err != nil {
		return err
	}

	total := len(items)
	points := make([]BM25DataPoint, 0, total)
	for i, item := range items {
		if i%creationCheckInterval == 0 {
			if handle.Token.IsCancelled() {
				_ = bc.Close()
				return semerr.Cancelled("Operation was cancelled during BM25 data point creation")
			}
			handle.Progress.TryUpdate(uint64(i), uint64(total),
				fmt.Sprintf("Creating BM25 data points (%d/%d)", i, total))
		}
		points = append(points, BM25DataPoint{
			ID:      uint64(i),
			Payload: item.Payload(),
			Content: item.Text,
		})
	}
	if err := ctx.Err(); err != nil {
		_ = bc.Close()
		return semerr.Cancelled("Operation was cancelled during BM25 data point creation")
	}

	if handle.Token.IsCancelled() {
		_ = bc.Close()
		return semerr.Cancelled("Operation was cancelled before building BM25 index")
	}
	handle.Progress.TrySetMessage("Building BM25 index...")

	if _, err := bc.AddDataPoints(points); err != nil {
		_ = bc.Close()
		return err
	}
	if err := bc.Save(); err != nil {
		slog.Error("failed to persist BM25 context data",
			slog.String("context_id", contextID),
			slog.String("error", err.Error()))
	}

	cr.manager.InsertBM25Context(contextID, bc)
	return nil
}

func (cr *Creator) createSemantic(
	ctx context.Context,
	contextDir, contextID string,
	items []processor.Item,
	handle *operations.Handle,
	embedder embed.Embedder,
) error {
	handle.Progress.TrySetMessage("Creating semantic context...")
	if handle.Token.IsCancelled() {
		return semerr.Cancelled("Operation was cancelled during semantic context creation")
	}

	sc, err := NewSemanticContext(filepath.Join(contextDir, SemanticDataFile))
	if err != nil {
		return err
	}

	total := len(items)
	points := make([]DataPoint, 0, total)
	for i, item := range items {
		if i%creationCheckInterval == 0 {
			if handle.Token.IsCancelled() {
				_ = sc.Close()
				return semerr.Cancelled("Operation was cancelled during embedding generation")
			}
			handle.Progress.TryUpdate(uint64(i), uint64(total),
				fmt.Sprintf("Generating embeddings (%d/%d)", i, total))
		}

		vector, err := embedder.Embed(ctx, item.Text)
		if err != nil {
			_ = sc.Close()
			if semerr.IsCancelled(err) || ctx.Err() != nil {
				return semerr.Cancelled("Operation was cancelled during embedding generation")
			}
			return semerr.EmbeddingError(
				fmt.Sprintf("failed to embed item %d of %d", i+1, total), err)
		}
		points = append(points, DataPoint{
			ID:      uint64(i),
			Payload: item.Payload(),
			Vector:  vector,
		})
	}

	if handle.Token.IsCancelled() {
		_ = sc.Close()
		return semerr.Cancelled("Operation was cancelled before building index")
	}
	handle.Progress.TrySetMessage("Building vector index...")

	if _, err := sc.AddDataPoints(points); err != nil {
		_ = sc.Close()
		return err
	}
	if err := sc.Save(); err != nil {
		slog.Error("failed to persist semantic context data",
			slog.String("context_id", contextID),
			slog.String("error", err.Error()))
	}

	cr.manager.InsertSemanticContext(contextID, sc)
	return nil
}
