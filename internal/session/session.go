// Package session keeps asynchronous results in order: every request source issues a token
// per request and applies a response only while that token is still the latest one.
package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWindow is the quiet period used for debounced input.
const DefaultWindow = 400 * time.Millisecond

// Token identifies one request issued by a Sequence.
type Token uint64

// Sequence issues monotonically increasing tokens. The zero value is ready to use and safe
// for concurrent use.
type Sequence struct {
	last atomic.Uint64
}

// Next issues a new token, superseding every earlier one.
func (s *Sequence) Next() Token {
	return Token(s.last.Add(1))
}

// Current reports whether tok is the most recently issued token.
func (s *Sequence) Current(tok Token) bool {
	return s.last.Load() == uint64(tok)
}

// Debouncer runs the most recently scheduled function once no new call has been scheduled
// for the length of its window.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a Debouncer. A non-positive window selects DefaultWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window}
}

// Schedule replaces any pending call with fn and restarts the window.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels the pending call, if any. A call that already started is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
