// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package shutdown provides a single-producer/many-consumer latch with a
// timed wait, immune to the classic missed-wakeup race: a Signal() that
// happens while no goroutine is inside WaitTimeout must still cause the
// very next WaitTimeout call to return true immediately.
package shutdown

import (
	"sync"
	"sync/atomic"
	"time"
)

// Signal is a level-triggered shutdown flag combined with an edge-triggered
// wake channel. The flag is checked both before and after the timed sleep,
// which closes the race a bare channel-close-as-wakeup would otherwise have
// against a signal arriving between two WaitTimeout calls.
type Signal struct {
	signalled atomic.Bool
	once      sync.Once
	closed    chan struct{}
}

// New returns a ready-to-use Signal.
func New() *Signal {
	return &Signal{closed: make(chan struct{})}
}

// WaitTimeout blocks for up to d, or until Signal is called, whichever
// comes first. It returns true if shutdown has been (ever) signalled —
// including if it was already signalled before this call began.
func (s *Signal) WaitTimeout(d time.Duration) bool {
	if s.signalled.Load() {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.closed:
	case <-timer.C:
	}

	return s.signalled.Load()
}

// Signal sets the latch and wakes every goroutine currently blocked in
// WaitTimeout. Idempotent: calling it more than once is a no-op after the
// first call.
func (s *Signal) Signal() {
	s.signalled.Store(true)
	s.once.Do(func() { close(s.closed) })
}

// Signalled reports whether Signal has ever been called, without blocking.
func (s *Signal) Signalled() bool {
	return s.signalled.Load()
}
