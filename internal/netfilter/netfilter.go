// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netfilter abstracts the kernel network-admission subsystem so the
// refresh loop and launcher can drive it without depending on a loaded eBPF
// collection directly — mirroring the teacher's internal/kernel.Kernel split
// between a real provider and an in-memory stand-in.
package netfilter

import "net"

// Controller admits or revokes IPv4 networks from mori's connect4 filter.
type Controller interface {
	// AllowNetwork admits addr/prefixLen. Calling it again for the same
	// network overwrites any previous entry.
	AllowNetwork(addr net.IP, prefixLen uint8) error
	// RemoveNetwork revokes addr/prefixLen. A missing entry is not an error.
	RemoveNetwork(addr net.IP, prefixLen uint8) error
	// Close detaches the underlying program and releases its resources.
	Close() error
}
