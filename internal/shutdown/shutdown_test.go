// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package shutdown

import (
	"testing"
	"time"
)

func TestWaitTimeoutElapses(t *testing.T) {
	s := New()
	start := time.Now()
	if s.WaitTimeout(20 * time.Millisecond) {
		t.Fatal("expected false when no signal arrives")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("returned before the timeout elapsed")
	}
}

func TestSignalWakesWaiter(t *testing.T) {
	s := New()
	done := make(chan bool, 1)
	go func() {
		done <- s.WaitTimeout(time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Signal()

	select {
	case result := <-done:
		if !result {
			t.Fatal("expected WaitTimeout to return true after Signal")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitTimeout did not wake up after Signal")
	}
}

func TestSignalBeforeWaitIsNotMissed(t *testing.T) {
	s := New()
	s.Signal()
	if !s.WaitTimeout(time.Second) {
		t.Fatal("expected WaitTimeout to observe a signal set before it was called")
	}
}

func TestSignalIsIdempotent(t *testing.T) {
	s := New()
	s.Signal()
	s.Signal()
	if !s.Signalled() {
		t.Fatal("expected Signalled to be true")
	}
}
