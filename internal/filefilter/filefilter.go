// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package filefilter abstracts the kernel file-access admission subsystem
// mori's LSM file_open hook enforces, the same way internal/netfilter
// abstracts the connect4 hook.
package filefilter

// Controller denies file paths by access mode for the cgroup the file_open
// program was scoped to at attach time.
type Controller interface {
	// DenyPath adds path to the deny table under mode (a bitmask of
	// policy.AccessRead/policy.AccessWrite).
	DenyPath(path string, mode uint8) error
	// Close detaches the underlying program and releases its resources.
	Close() error
}
