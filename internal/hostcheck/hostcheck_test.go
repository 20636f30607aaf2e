// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hostcheck

import "testing"

func TestRequirementError(t *testing.T) {
	req := &Requirement{Feature: "JIT", Message: "disabled"}
	if req.Error() != "JIT: disabled" {
		t.Errorf("unexpected error string: %q", req.Error())
	}
}

func TestGetMemoryInfo(t *testing.T) {
	info, err := GetMemoryInfo()
	if err != nil {
		t.Skipf("/proc/meminfo unavailable: %v", err)
	}
	if info.TotalBytes == 0 {
		t.Errorf("expected non-zero TotalBytes")
	}
}
