package operations

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	semerr "github.com/semidx/semidx/internal/errors"
)

// MaxConcurrentOperations is the advisory concurrency ceiling surfaced
// in status output. The manager itself does not enforce it; callers
// gate registration before submitting more work.
const MaxConcurrentOperations = 3

// terminalEvictionGrace is how long cancelled/failed operations remain
// visible in status output before being evicted.
const terminalEvictionGrace = 30 * time.Second

// OperationType identifies the kind of background work being tracked.
type OperationType string

const (
	OpIndexing OperationType = "indexing"
	OpCounting OperationType = "counting"
	OpClearing OperationType = "clearing"
)

// DisplayName returns the user-facing name of the operation type.
func (t OperationType) DisplayName() string {
	switch t {
	case OpIndexing:
		return "Indexing"
	case OpCounting:
		return "Counting files"
	case OpClearing:
		return "Clearing"
	default:
		return string(t)
	}
}

// Handle tracks one registered operation.
type Handle struct {
	ID        uuid.UUID
	Type      OperationType
	Label     string // Target description, e.g. the directory being indexed
	StartedAt time.Time
	Progress  *ProgressTracker
	Token     *CancelToken
}

// ShortID returns the first 8 characters of the operation id.
func (h *Handle) ShortID() string {
	return h.ID.String()[:8]
}

// OperationStatus is the per-operation view in a status query.
type OperationStatus struct {
	ID            string        `json:"id"`
	ShortID       string        `json:"short_id"`
	OperationType OperationType `json:"operation_type"`
	StartedAt     time.Time     `json:"started_at"`
	Current       uint64        `json:"current"`
	Total         uint64        `json:"total"`
	Message       string        `json:"message"`
	IsCancelled   bool          `json:"is_cancelled"`
	IsFailed      bool          `json:"is_failed"`
	IsWaiting     bool          `json:"is_waiting"`
	ETASeconds    uint64        `json:"eta_seconds,omitempty"`
}

// SystemStatus aggregates context counts and operation states.
type SystemStatus struct {
	TotalContexts      int               `json:"total_contexts"`
	PersistentContexts int               `json:"persistent_contexts"`
	VolatileContexts   int               `json:"volatile_contexts"`
	Operations         []OperationStatus `json:"operations"`
	ActiveCount        int               `json:"active_count"`
	WaitingCount       int               `json:"waiting_count"`
	MaxConcurrent      int               `json:"max_concurrent"`
}

// Manager owns the operation handle map. Handles are shared with
// workers through their tokens and progress trackers; the map itself is
// exclusive to the manager.
type Manager struct {
	mu      sync.RWMutex
	handles map[uuid.UUID]*Handle
	clock   func() time.Time
}

// NewManager creates an empty operation manager.
func NewManager() *Manager {
	return &Manager{
		handles: make(map[uuid.UUID]*Handle),
		clock:   time.Now,
	}
}

// Register inserts a new operation with a fresh cancellation token and
// zeroed progress, returning its handle. The label describes the
// operation's target (the directory path for indexing).
func (m *Manager) Register(opType OperationType, label string) *Handle {
	handle := &Handle{
		ID:        uuid.New(),
		Type:      opType,
		Label:     label,
		StartedAt: m.clock(),
		Progress:  NewProgressTracker(),
		Token:     NewCancelToken(),
	}

	m.mu.Lock()
	m.handles[handle.ID] = handle
	m.mu.Unlock()

	return handle
}

// Handles returns a snapshot of all tracked handles.
func (m *Manager) Handles() []*Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	return handles
}

// Get returns the handle for an operation id.
func (m *Manager) Get(id uuid.UUID) (*Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	return h, ok
}

// Count returns the number of tracked operations.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// ActiveCount returns the number of operations that are neither
// cancelled nor failed, for concurrency-ceiling checks by callers.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := 0
	for _, h := range m.handles {
		msg := strings.ToLower(h.Progress.Snapshot().Message)
		if !strings.Contains(msg, "cancelled") && !strings.Contains(msg, "failed") {
			active++
		}
	}
	return active
}

// Cancel signals the operation's token and marks its progress message.
// Returns a user-facing confirmation, or a not-found error for an
// unknown id.
func (m *Manager) Cancel(id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handle, ok := m.handles[id]
	if !ok {
		return "", semerr.OperationNotFound(id.String()[:8])
	}

	handle.Token.Cancel()
	handle.Progress.SetMessage("Operation cancelled by user")

	return fmt.Sprintf("✅ Cancelled operation: %s (ID: %s)", handle.Type.DisplayName(), handle.ShortID()), nil
}

// FindByShortID resolves a short id prefix to a full operation id.
func (m *Manager) FindByShortID(shortID string) (uuid.UUID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id := range m.handles {
		if strings.HasPrefix(id.String(), shortID) {
			return id, true
		}
	}
	return uuid.UUID{}, false
}

// CancelMostRecent cancels the operation with the latest start time.
func (m *Manager) CancelMostRecent() (string, error) {
	m.mu.RLock()
	var mostRecent *Handle
	for _, h := range m.handles {
		if mostRecent == nil || h.StartedAt.After(mostRecent.StartedAt) {
			mostRecent = h
		}
	}
	m.mu.RUnlock()

	if mostRecent == nil {
		return "No active operations to cancel", nil
	}
	return m.Cancel(mostRecent.ID)
}

// CancelAll signals every handle and resets progress. Always succeeds,
// reporting how many operations were cancelled.
func (m *Manager) CancelAll() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.handles) == 0 {
		return "No active operations to cancel"
	}

	count := len(m.handles)
	for _, handle := range m.handles {
		handle.Token.Cancel()
		handle.Progress.Reset("Operation cancelled by user")
	}

	return fmt.Sprintf("✅ Cancelled %d active operations", count)
}

// ListOperationIDs returns "full-id (short: xxxxxxxx)" lines for every
// tracked operation, sorted for stable output.
func (m *Manager) ListOperationIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, fmt.Sprintf("%s (short: %s)", id, id.String()[:8]))
	}
	sort.Strings(ids)
	return ids
}

// Status evicts stale terminal operations, classifies the rest as
// active or waiting, and returns the aggregate system status. Progress
// reads use try-lock semantics: a contended operation is skipped this
// tick rather than blocking the query.
func (m *Manager) Status(totalContexts, persistentContexts, volatileContexts int) SystemStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()

	// Evict cancelled/failed operations past the grace window
	for id, handle := range m.handles {
		info, ok := handle.Progress.TrySnapshot()
		if !ok {
			continue
		}
		msg := strings.ToLower(info.Message)
		terminal := strings.Contains(msg, "cancelled") || strings.Contains(msg, "failed")
		if terminal && now.Sub(handle.StartedAt) >= terminalEvictionGrace {
			delete(m.handles, id)
		}
	}

	status := SystemStatus{
		TotalContexts:      totalContexts,
		PersistentContexts: persistentContexts,
		VolatileContexts:   volatileContexts,
		MaxConcurrent:      MaxConcurrentOperations,
	}

	for id, handle := range m.handles {
		info, ok := handle.Progress.TrySnapshot()
		if !ok {
			continue // Contended; best-effort skip
		}

		msg := strings.ToLower(info.Message)
		isCancelled := strings.Contains(msg, "cancelled")
		isFailed := strings.Contains(msg, "failed")
		isWaiting := isOperationWaiting(info)

		switch {
		case isCancelled:
			// Terminal, not counted
		case isFailed || isWaiting:
			status.WaitingCount++
		default:
			status.ActiveCount++
		}

		opStatus := OperationStatus{
			ID:            id.String(),
			ShortID:       id.String()[:8],
			OperationType: handle.Type,
			StartedAt:     handle.StartedAt,
			Current:       info.Current,
			Total:         info.Total,
			Message:       info.Message,
			IsCancelled:   isCancelled,
			IsFailed:      isFailed,
			IsWaiting:     isWaiting,
		}
		if eta, ok := handle.Progress.ETA(); ok {
			opStatus.ETASeconds = uint64(eta.Seconds())
		}
		status.Operations = append(status.Operations, opStatus)
	}

	sort.Slice(status.Operations, func(i, j int) bool {
		return status.Operations[i].StartedAt.Before(status.Operations[j].StartedAt)
	})

	return status
}

// isOperationWaiting applies the message heuristic for operations that
// are registered but not yet making progress.
func isOperationWaiting(info ProgressInfo) bool {
	return strings.Contains(info.Message, "Waiting") ||
		strings.Contains(info.Message, "queue") ||
		strings.Contains(info.Message, "slot") ||
		strings.Contains(info.Message, "write access") ||
		strings.Contains(info.Message, "Initializing") ||
		strings.Contains(info.Message, "Starting") ||
		(info.Current == 0 && info.Total == 0 && !strings.Contains(info.Message, "complete"))
}
