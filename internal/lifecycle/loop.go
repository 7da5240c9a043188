package lifecycle

import "sync/atomic"

// Loop is the token of a cooperative per-frame redraw loop. Each frame
// callback carries the token it was scheduled with and reschedules itself
// only while that token is still alive, so Cancel stops the loop at its next
// frame without any timer bookkeeping.
type Loop struct {
	current atomic.Uint64
	running atomic.Bool
}

// Start begins a new loop, superseding any running one, and returns its token.
func (l *Loop) Start() uint64 {
	tok := l.current.Add(1)
	l.running.Store(true)
	return tok
}

// Cancel stops the running loop.
func (l *Loop) Cancel() {
	l.current.Add(1)
	l.running.Store(false)
}

// Alive reports whether token belongs to the running loop.
func (l *Loop) Alive(token uint64) bool {
	return l.running.Load() && l.current.Load() == token
}

// Current returns the latest token.
func (l *Loop) Current() uint64 { return l.current.Load() }

// Running reports whether any loop is active.
func (l *Loop) Running() bool { return l.running.Load() }
