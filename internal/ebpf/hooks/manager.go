// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hooks tracks the lifecycle of mori's two attachment points — the
// cgroup-scoped connect4 hook and the system-wide LSM file_open hook — so
// that everything attached can be detached in one call during teardown
// (loader.Loader.Close calls DetachAll).
package hooks

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
)

// HookType identifies which of mori's two attach kinds a hook uses.
type HookType int

const (
	HookTypeUnspec HookType = iota
	HookTypeCgroupConnect4
	HookTypeLSMFileOpen
)

func (t HookType) String() string {
	switch t {
	case HookTypeCgroupConnect4:
		return "cgroup/connect4"
	case HookTypeLSMFileOpen:
		return "lsm/file_open"
	default:
		return "unspec"
	}
}

// AttachedHook is one program currently attached to the kernel.
type AttachedHook struct {
	Name        string
	Type        HookType
	AttachPoint string
	AttachedAt  time.Time
	Link        link.Link
	active      bool
	mutex       sync.RWMutex
}

// Manager tracks every attached hook across mori's filter controllers.
type Manager struct {
	mutex sync.RWMutex
	hooks map[string]*AttachedHook
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{hooks: make(map[string]*AttachedHook)}
}

// AttachCgroup attaches program to cgroupDir at attachType and records it
// under name.
func (m *Manager) AttachCgroup(name string, program *ebpf.Program, cgroupDir *os.File, attachType ebpf.AttachType) error {
	lnk, err := link.AttachCgroup(link.CgroupOptions{
		Path:    cgroupDir.Name(),
		Attach:  attachType,
		Program: program,
	})
	if err != nil {
		return fmt.Errorf("failed to attach cgroup hook %s: %w", name, err)
	}
	m.record(name, HookTypeCgroupConnect4, cgroupDir.Name(), lnk)
	return nil
}

// AttachLSM attaches program system-wide to its BTF-declared LSM hook and
// records it under name.
func (m *Manager) AttachLSM(name string, program *ebpf.Program) error {
	lnk, err := link.AttachLSM(link.LSMOptions{Program: program})
	if err != nil {
		return fmt.Errorf("failed to attach LSM hook %s: %w", name, err)
	}
	m.record(name, HookTypeLSMFileOpen, "system-wide", lnk)
	return nil
}

func (m *Manager) record(name string, t HookType, attachPoint string, lnk link.Link) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hooks[name] = &AttachedHook{
		Name:        name,
		Type:        t,
		AttachPoint: attachPoint,
		AttachedAt:  time.Now(),
		Link:        lnk,
		active:      true,
	}
}

// Detach detaches the named hook.
func (m *Manager) Detach(name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hook, exists := m.hooks[name]
	if !exists {
		return fmt.Errorf("hook %s not attached", name)
	}
	return m.detachLocked(hook)
}

func (m *Manager) detachLocked(hook *AttachedHook) error {
	hook.mutex.Lock()
	defer hook.mutex.Unlock()

	if !hook.active {
		return nil
	}
	if err := hook.Link.Close(); err != nil {
		return fmt.Errorf("failed to close link %s: %w", hook.Name, err)
	}
	hook.active = false
	return nil
}

// DetachAll detaches every attached hook, returning the first error
// encountered (if any) after attempting all of them.
func (m *Manager) DetachAll() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var firstErr error
	for name, hook := range m.hooks {
		if err := m.detachLocked(hook); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to detach %s: %w", name, err)
		}
	}
	return firstErr
}

// Close is an alias for DetachAll, satisfying io.Closer.
func (m *Manager) Close() error {
	return m.DetachAll()
}
