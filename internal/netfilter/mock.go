// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netfilter

import (
	"fmt"
	"net"
	"sync"
)

// MockController is an in-memory Controller for tests that never touch the
// kernel.
type MockController struct {
	mu     sync.Mutex
	allow  map[string]struct{}
	closed bool
}

// NewMockController returns an empty MockController.
func NewMockController() *MockController {
	return &MockController{allow: make(map[string]struct{})}
}

func networkKeyString(addr net.IP, prefixLen uint8) string {
	return fmt.Sprintf("%s/%d", addr.String(), prefixLen)
}

// AllowNetwork implements Controller.
func (m *MockController) AllowNetwork(addr net.IP, prefixLen uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allow[networkKeyString(addr, prefixLen)] = struct{}{}
	return nil
}

// RemoveNetwork implements Controller.
func (m *MockController) RemoveNetwork(addr net.IP, prefixLen uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.allow, networkKeyString(addr, prefixLen))
	return nil
}

// Close implements Controller.
func (m *MockController) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsAllowed reports whether addr/prefixLen is currently admitted.
func (m *MockController) IsAllowed(addr net.IP, prefixLen uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.allow[networkKeyString(addr, prefixLen)]
	return ok
}

// Len returns the number of currently-admitted networks.
func (m *MockController) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.allow)
}

// Closed reports whether Close has been called.
func (m *MockController) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Controller = (*MockController)(nil)
