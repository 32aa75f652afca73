// Package operations tracks cancellable, progress-reporting background
// operations and answers status queries about them.
package operations

import "sync"

// CancelToken is a cooperative cancellation flag shared between an
// operation handle and the worker running the operation. Workers poll
// IsCancelled at bounded intervals; nothing is interrupted mid-step.
type CancelToken struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancelToken creates an unsignalled token.
func NewCancelToken() *CancelToken {
	return &CancelToken{ch: make(chan struct{})}
}

// Cancel signals the token. Safe to call multiple times.
func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.ch) })
}

// IsCancelled reports whether the token has been signalled.
func (t *CancelToken) IsCancelled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on cancellation, for select loops.
func (t *CancelToken) Done() <-chan struct{} {
	return t.ch
}
