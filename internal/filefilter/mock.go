// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filefilter

import "sync"

// MockController is an in-memory Controller for tests that never touch the
// kernel.
type MockController struct {
	mu     sync.Mutex
	denied map[string]uint8
	closed bool
}

// NewMockController returns an empty MockController.
func NewMockController() *MockController {
	return &MockController{denied: make(map[string]uint8)}
}

// DenyPath implements Controller.
func (m *MockController) DenyPath(path string, mode uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[path] = mode
	return nil
}

// Close implements Controller.
func (m *MockController) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ModeFor returns the recorded deny mode for path and whether it is denied
// at all.
func (m *MockController) ModeFor(path string) (uint8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode, ok := m.denied[path]
	return mode, ok
}

// Closed reports whether Close has been called.
func (m *MockController) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Controller = (*MockController)(nil)
