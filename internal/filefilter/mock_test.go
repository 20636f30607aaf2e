// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filefilter

import "testing"

func TestMockControllerDenyPath(t *testing.T) {
	m := NewMockController()
	if _, ok := m.ModeFor("/etc/shadow"); ok {
		t.Fatal("expected no entry before DenyPath")
	}
	if err := m.DenyPath("/etc/shadow", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mode, ok := m.ModeFor("/etc/shadow")
	if !ok || mode != 3 {
		t.Fatalf("expected mode 3, got %d ok=%v", mode, ok)
	}
}

func TestMockControllerClose(t *testing.T) {
	m := NewMockController()
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Closed() {
		t.Fatal("expected Closed() true")
	}
}
