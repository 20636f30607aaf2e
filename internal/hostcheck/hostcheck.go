// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hostcheck verifies the host meets the requirements mori needs
// before it creates a cgroup or loads any eBPF program: a cgroup-v2
// hierarchy, a JIT-capable kernel, and an unlimited (or sufficiently raised)
// memlock limit for map creation.
package hostcheck

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// cgroup2SuperMagic is statfs's f_type value for a cgroup-v2 mount.
const cgroup2SuperMagic = 0x63677270

// Requirement represents one unmet or marginal host requirement.
type Requirement struct {
	Feature string
	Message string
	Fatal   bool
}

func (e *Requirement) Error() string {
	return fmt.Sprintf("%s: %s", e.Feature, e.Message)
}

// MemoryInfo holds system memory statistics read from /proc/meminfo.
type MemoryInfo struct {
	TotalBytes     uint64
	FreeBytes      uint64
	AvailableBytes uint64
}

// GetMemoryInfo reads and parses /proc/meminfo.
func GetMemoryInfo() (*MemoryInfo, error) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info := &MemoryInfo{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		val, _ := strconv.ParseUint(fields[1], 10, 64)
		valBytes := val * 1024
		switch fields[0] {
		case "MemTotal:":
			info.TotalBytes = valBytes
		case "MemFree:":
			info.FreeBytes = valBytes
		case "MemAvailable:":
			info.AvailableBytes = valBytes
		}
	}
	if info.AvailableBytes == 0 {
		info.AvailableBytes = info.FreeBytes
	}
	return info, nil
}

// CheckBPFJIT reports whether the kernel's BPF JIT is enabled.
func CheckBPFJIT() (bool, error) {
	data, err := os.ReadFile("/proc/sys/net/core/bpf_jit_enable")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(data)) != "0", nil
}

// CgroupV2Mounted reports whether /sys/fs/cgroup is a cgroup-v2 hierarchy.
func CgroupV2Mounted(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, err
	}
	return uint32(st.Type) == cgroup2SuperMagic, nil
}

// RaiseMemlock removes the memlock rlimit so eBPF map creation does not fail
// with EPERM on kernels older than 5.11 (which account locked eBPF memory
// against RLIMIT_MEMLOCK).
func RaiseMemlock() error {
	limit := unix.Rlimit{Cur: unix.RLIM_INFINITY, Max: unix.RLIM_INFINITY}
	return unix.Setrlimit(unix.RLIMIT_MEMLOCK, &limit)
}

// Verify runs every host requirement check and returns the set of
// unsatisfied requirements. A non-empty return with any Fatal entry means
// the launcher must not proceed to create a cgroup or load filters.
func Verify(cgroupRoot string) []Requirement {
	var reqs []Requirement

	mounted, err := CgroupV2Mounted(cgroupRoot)
	if err != nil || !mounted {
		reqs = append(reqs, Requirement{
			Feature: "cgroup-v2",
			Message: fmt.Sprintf("%s is not a cgroup-v2 mount", cgroupRoot),
			Fatal:   true,
		})
	}

	if _, err := os.Stat("/proc/sys/net/core/bpf_jit_enable"); os.IsNotExist(err) {
		reqs = append(reqs, Requirement{
			Feature: "eBPF",
			Message: "kernel does not expose bpf_jit_enable; eBPF is likely unsupported",
			Fatal:   true,
		})
		return reqs
	}

	if enabled, err := CheckBPFJIT(); err == nil && !enabled {
		reqs = append(reqs, Requirement{
			Feature: "JIT",
			Message: "eBPF JIT is disabled; filters will run in the (slower) interpreter",
			Fatal:   false,
		})
	}

	if mem, err := GetMemoryInfo(); err == nil && mem.AvailableBytes < 64*1024*1024 {
		reqs = append(reqs, Requirement{
			Feature: "Memory",
			Message: fmt.Sprintf("low available memory (%d MB)", mem.AvailableBytes/1024/1024),
			Fatal:   false,
		})
	}

	if err := RaiseMemlock(); err != nil {
		reqs = append(reqs, Requirement{
			Feature: "memlock",
			Message: fmt.Sprintf("failed to raise RLIMIT_MEMLOCK: %v", err),
			Fatal:   false,
		})
	}

	return reqs
}
