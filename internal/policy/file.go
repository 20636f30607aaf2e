// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import (
	"os"
	"path/filepath"
	"strings"
)

// AccessMode is a bitmask of file-open access modes: bit 0 = read, bit 1 =
// write. The numeric values match the kernel-side deny-path map's value
// encoding exactly.
type AccessMode int

const (
	AccessRead      AccessMode = 1
	AccessWrite     AccessMode = 2
	AccessReadWrite AccessMode = 3
)

// Overlaps reports whether m shares any bit with other — used to decide
// whether a deny entry for Read should block an open requesting ReadWrite,
// etc.
func (m AccessMode) Overlaps(other AccessMode) bool {
	return m&other != 0
}

// DeniedPath is one entry in a FilePolicy: a normalized absolute path and
// the access bits denied on it.
type DeniedPath struct {
	Path string
	Mode AccessMode
}

// FilePolicy is an ordered, append-only deny-list: every path is allowed
// except those listed here, and then only for the listed access bits. An
// empty FilePolicy disables the file filter entirely.
type FilePolicy struct {
	Denied []DeniedPath
}

// NewFilePolicy returns an empty (allow-everything) FilePolicy.
func NewFilePolicy() FilePolicy {
	return FilePolicy{}
}

// DenyRead appends a read-deny entry for path.
func (f *FilePolicy) DenyRead(path string) {
	f.Denied = append(f.Denied, DeniedPath{Path: NormalizePath(path), Mode: AccessRead})
}

// DenyWrite appends a write-deny entry for path.
func (f *FilePolicy) DenyWrite(path string) {
	f.Denied = append(f.Denied, DeniedPath{Path: NormalizePath(path), Mode: AccessWrite})
}

// DenyReadWrite appends a read+write-deny entry for path.
func (f *FilePolicy) DenyReadWrite(path string) {
	f.Denied = append(f.Denied, DeniedPath{Path: NormalizePath(path), Mode: AccessReadWrite})
}

// IsEmpty reports whether the policy denies nothing.
func (f FilePolicy) IsEmpty() bool { return len(f.Denied) == 0 }

// NormalizePath absolutizes path against the current working directory and
// resolves "." and ".." components syntactically — it does not touch the
// filesystem and does not resolve symlinks, matching the accepted
// limitation that bind-mounts/symlinks can present alternative paths that
// evade the filter.
func NormalizePath(path string) string {
	abs := path
	if !filepath.IsAbs(abs) {
		if cwd, err := os.Getwd(); err == nil {
			abs = filepath.Join(cwd, abs)
		} else {
			abs = filepath.Join("/", abs)
		}
	}

	parts := strings.Split(abs, string(filepath.Separator))
	var stack []string
	for _, part := range parts {
		switch part {
		case "", ".":
			// skip
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return "/" + strings.Join(stack, "/")
}
