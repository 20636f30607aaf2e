// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

import (
	"fmt"
	"os"
	"syscall"

	"github.com/cilium/ebpf"

	"mori.run/mori/internal/ebpf/loader"
)

// FileOpenProgramName is the LSM program exposed by the generated
// collection. It hooks security_file_open and is attached system-wide
// because the hook is sleepable; it filters to mori's own child process by
// looking up the caller's cgroup id in TargetCgroupMapName.
const FileOpenProgramName = "mori_path_open"

// TargetCgroupMapName holds the single cgroup id (the directory inode) the
// file_open program admits; every other cgroup's opens pass through
// unfiltered.
const TargetCgroupMapName = "TARGET_CGROUP"

// DenyPathsMapName is the fixed-width path deny-table the file_open program
// consults once it has matched the caller's cgroup id.
const DenyPathsMapName = "DENY_PATHS"

// PathMaxBytes is the key width of DenyPathsMapName: Linux's PATH_MAX,
// including the trailing NUL bpf_d_path writes.
const PathMaxBytes = 4096

// pathKey is a fixed-width, NUL-padded byte array used as the DENY_PATHS key.
type pathKey [PathMaxBytes]byte

// FileOpenProgram loads and attaches the file-access admission hook.
type FileOpenProgram struct {
	loader   *loader.Loader
	cgroupID uint64
}

// NewFileOpenProgram loads the file_open collection, registers cgroupID as
// the only cgroup it admits opens for, and attaches the LSM hook
// system-wide.
func NewFileOpenProgram(cgroupID uint64) (*FileOpenProgram, error) {
	spec, err := LoadFileOpen()
	if err != nil {
		return nil, fmt.Errorf("failed to load file_open spec: %w", err)
	}

	l := loader.NewLoader()
	if err := l.LoadCollection(spec); err != nil {
		return nil, fmt.Errorf("failed to load file_open collection: %w", err)
	}

	p := &FileOpenProgram{loader: l, cgroupID: cgroupID}

	targetMap, err := l.RawMap(TargetCgroupMapName)
	if err != nil {
		l.Close()
		return nil, err
	}
	if err := targetMap.Update(&cgroupID, uint8(1), ebpf.UpdateAny); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to register target cgroup: %w", err)
	}

	if err := l.AttachLSM(FileOpenProgramName); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to attach file_open program: %w", err)
	}

	return p, nil
}

// DenyPath adds path to the deny table under mode. A path of PathMaxBytes
// bytes or longer is rejected, since the path plus its NUL terminator would
// not fit the fixed-width map key.
func (p *FileOpenProgram) DenyPath(path string, mode uint8) error {
	key, err := encodePathKey(path)
	if err != nil {
		return err
	}

	m, err := p.loader.RawMap(DenyPathsMapName)
	if err != nil {
		return err
	}
	return m.Update(&key, mode, ebpf.UpdateAny)
}

// CgroupID returns the cgroup id this program was scoped to.
func (p *FileOpenProgram) CgroupID() uint64 {
	return p.cgroupID
}

// Close detaches the file_open program and releases the collection.
func (p *FileOpenProgram) Close() error {
	return p.loader.Close()
}

func encodePathKey(path string) (pathKey, error) {
	var key pathKey
	if len(path) >= PathMaxBytes {
		return key, fmt.Errorf("path %q exceeds maximum length %d", path, PathMaxBytes-1)
	}
	copy(key[:], path)
	// key is zero-initialized, so the byte past the copied text is
	// already the NUL terminator bpf_d_path would have written.
	return key, nil
}

// StatCgroupID returns the inode number of cgroupDir, which cgroup-v2 uses
// as the cgroup's stable id — the same value the kernel exposes via
// bpf_get_current_cgroup_id() inside the LSM hook.
func StatCgroupID(cgroupDir *os.File) (uint64, error) {
	info, err := cgroupDir.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat cgroup directory: %w", err)
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("unsupported platform: cannot read inode from %T", info.Sys())
	}
	return stat.Ino, nil
}
