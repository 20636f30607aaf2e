// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cgroupmgr

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestCreateAtMakesDirectoryAndOpensIt(t *testing.T) {
	root := t.TempDir()
	m, err := CreateAt(root, 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Remove()

	want := filepath.Join(root, "mori-12345")
	if m.Path() != want {
		t.Errorf("expected path %q, got %q", want, m.Path())
	}
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Errorf("expected directory to exist at %q", want)
	}
	if m.Dir() == nil {
		t.Error("expected an open directory handle")
	}
}

func TestEnrollWritesPidToProcs(t *testing.T) {
	root := t.TempDir()
	m, err := CreateAt(root, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer m.Remove()

	if err := m.Enroll(4242); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(m.Path(), "cgroup.procs"))
	if err != nil {
		t.Fatalf("unexpected error reading cgroup.procs: %v", err)
	}
	if string(data) != strconv.Itoa(4242) {
		t.Errorf("expected pid written verbatim, got %q", data)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	root := t.TempDir()
	m, err := CreateAt(root, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Remove(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Remove(); err != nil {
		t.Fatalf("expected second Remove to be a no-op, got %v", err)
	}
	if _, err := os.Stat(m.Path()); !os.IsNotExist(err) {
		t.Errorf("expected directory to be gone")
	}
}

func TestSudoOwnerRequiresBothVars(t *testing.T) {
	t.Setenv("SUDO_UID", "1000")
	t.Setenv("SUDO_GID", "")
	os.Unsetenv("SUDO_GID")
	if _, _, ok := sudoOwner(); ok {
		t.Error("expected sudoOwner to report false when SUDO_GID is unset")
	}

	t.Setenv("SUDO_GID", "1000")
	if uid, gid, ok := sudoOwner(); !ok || uid != 1000 || gid != 1000 {
		t.Errorf("expected (1000,1000,true), got (%d,%d,%v)", uid, gid, ok)
	}
}
