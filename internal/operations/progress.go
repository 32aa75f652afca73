package operations

import (
	"sync"
	"time"
)

// ProgressInfo is a point-in-time progress snapshot.
type ProgressInfo struct {
	Current uint64 `json:"current"`
	Total   uint64 `json:"total"`
	Message string `json:"message"`
}

// ProgressTracker holds mutable progress shared between a worker and
// status queries. Writers use try-lock semantics so the hot path never
// blocks on a contended status read; a skipped update is acceptable
// because progress is advisory.
type ProgressTracker struct {
	mu        sync.Mutex
	info      ProgressInfo
	startedAt time.Time
}

// NewProgressTracker creates a tracker with zeroed progress.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{startedAt: time.Now()}
}

// TryUpdate sets current/total/message if the lock is free.
// Returns false when contended (the update is dropped).
func (p *ProgressTracker) TryUpdate(current, total uint64, message string) bool {
	if !p.mu.TryLock() {
		return false
	}
	defer p.mu.Unlock()
	p.info.Current = current
	p.info.Total = total
	p.info.Message = message
	return true
}

// TrySetMessage sets only the message if the lock is free.
func (p *ProgressTracker) TrySetMessage(message string) bool {
	if !p.mu.TryLock() {
		return false
	}
	defer p.mu.Unlock()
	p.info.Message = message
	return true
}

// Update sets current/total/message, blocking until the lock is
// available. Used for terminal progress, which must land.
func (p *ProgressTracker) Update(current, total uint64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info.Current = current
	p.info.Total = total
	p.info.Message = message
}

// SetMessage sets the message, blocking until the lock is available.
// Used by cancellation, where the terminal message must land.
func (p *ProgressTracker) SetMessage(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info.Message = message
}

// Reset zeroes counters and sets the message. Blocking.
func (p *ProgressTracker) Reset(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = ProgressInfo{Message: message}
}

// TrySnapshot returns the current progress if the lock is free.
func (p *ProgressTracker) TrySnapshot() (ProgressInfo, bool) {
	if !p.mu.TryLock() {
		return ProgressInfo{}, false
	}
	defer p.mu.Unlock()
	return p.info, true
}

// Snapshot returns the current progress, blocking until available.
func (p *ProgressTracker) Snapshot() ProgressInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// ETA estimates remaining time from elapsed time and the progress
// ratio. Returns 0, false until there is enough signal.
func (p *ProgressTracker) ETA() (time.Duration, bool) {
	info, ok := p.TrySnapshot()
	if !ok || info.Current == 0 || info.Total == 0 || info.Current >= info.Total {
		return 0, false
	}
	elapsed := time.Since(p.startedAt)
	remaining := time.Duration(float64(elapsed) * float64(info.Total-info.Current) / float64(info.Current))
	return remaining, true
}
