// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netfilter

import (
	"net"
	"testing"
)

func TestMockControllerAllowAndRemove(t *testing.T) {
	m := NewMockController()
	ip := net.ParseIP("1.2.3.4")

	if m.IsAllowed(ip, 32) {
		t.Fatal("expected not allowed before AllowNetwork")
	}
	if err := m.AllowNetwork(ip, 32); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsAllowed(ip, 32) {
		t.Fatal("expected allowed after AllowNetwork")
	}
	if err := m.RemoveNetwork(ip, 32); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.IsAllowed(ip, 32) {
		t.Fatal("expected not allowed after RemoveNetwork")
	}
}

func TestMockControllerRemoveMissingIsNotError(t *testing.T) {
	m := NewMockController()
	if err := m.RemoveNetwork(net.ParseIP("9.9.9.9"), 32); err != nil {
		t.Fatalf("expected no error removing missing entry, got %v", err)
	}
}

func TestMockControllerCloseIsIdempotent(t *testing.T) {
	m := NewMockController()
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Closed() {
		t.Fatal("expected Closed() true after Close")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("expected Close to be safe to call twice, got %v", err)
	}
}

func TestMockControllerLen(t *testing.T) {
	m := NewMockController()
	m.AllowNetwork(net.ParseIP("10.0.0.1"), 32)
	m.AllowNetwork(net.ParseIP("10.0.0.0"), 24)
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}
