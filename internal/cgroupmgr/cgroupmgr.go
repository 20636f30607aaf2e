// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cgroupmgr creates and tears down the cgroup-v2 directory mori
// scopes its filters and child process to.
package cgroupmgr

import (
	"os"
	"path/filepath"
	"strconv"

	"mori.run/mori/internal/morierr"
)

// Root is the cgroup-v2 hierarchy mori creates its own directory under.
const Root = "/sys/fs/cgroup"

// Manager owns one cgroup directory for the lifetime of a launch.
type Manager struct {
	path string
	dir  *os.File
}

// Create makes a fresh cgroup directory named mori-<pid> under Root, best-
// effort chowns it to SUDO_UID/SUDO_GID when running under sudo (so the
// child can still write to cgroup.procs after dropping privileges), and
// opens it for later fd-based operations (attach, stat for cgroup id).
func Create(pid int) (*Manager, error) {
	return CreateAt(Root, pid)
}

// CreateAt is Create with the hierarchy root overridden, for tests that
// can't write to the real /sys/fs/cgroup.
func CreateAt(root string, pid int) (*Manager, error) {
	path := filepath.Join(root, "mori-"+strconv.Itoa(pid))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, morierr.Wrap(err, morierr.KindKernel, "failed to create cgroup directory")
	}

	if uid, gid, ok := sudoOwner(); ok {
		// Best-effort: a failed chown leaves the directory root-owned.
		_ = os.Chown(path, uid, gid)
	}

	dir, err := os.Open(path)
	if err != nil {
		return nil, morierr.Wrap(err, morierr.KindKernel, "failed to open cgroup directory")
	}

	return &Manager{path: path, dir: dir}, nil
}

// sudoOwner reads SUDO_UID/SUDO_GID from the environment, reporting ok=false
// if either is absent or not a valid integer.
func sudoOwner() (uid, gid int, ok bool) {
	uidStr, uidSet := os.LookupEnv("SUDO_UID")
	gidStr, gidSet := os.LookupEnv("SUDO_GID")
	if !uidSet || !gidSet {
		return 0, 0, false
	}

	u, err := strconv.Atoi(uidStr)
	if err != nil {
		return 0, 0, false
	}
	g, err := strconv.Atoi(gidStr)
	if err != nil {
		return 0, 0, false
	}
	return u, g, true
}

// Path returns the cgroup directory's filesystem path.
func (m *Manager) Path() string {
	return m.path
}

// Dir returns the open *os.File for the cgroup directory, used by the
// filter controllers for cgroup-scoped attachment and cgroup-id lookup.
func (m *Manager) Dir() *os.File {
	return m.dir
}

// Enroll writes pid to the cgroup's cgroup.procs file, moving that process
// into the cgroup.
func (m *Manager) Enroll(pid int) error {
	procsPath := filepath.Join(m.path, "cgroup.procs")
	data := []byte(strconv.Itoa(pid))
	if err := os.WriteFile(procsPath, data, 0o644); err != nil {
		return morierr.Wrap(err, morierr.KindProcess, "failed to enroll process in cgroup")
	}
	return nil
}

// Remove closes the directory handle and best-effort removes the cgroup
// directory, swallowing the errors a caller can't usefully act on (the
// directory not existing, or the kernel not having finished tearing down
// its last process yet).
func (m *Manager) Remove() error {
	if m.dir != nil {
		m.dir.Close()
	}

	err := os.Remove(m.path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	if pathErr, ok := err.(*os.PathError); ok && pathErr.Err.Error() == "directory not empty" {
		return nil
	}
	return morierr.Wrap(err, morierr.KindTeardown, "failed to remove cgroup directory")
}
