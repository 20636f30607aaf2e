// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package loader loads an eBPF collection spec produced by bpf2go and
// attaches its programs to the two hook points mori needs: a cgroup-scoped
// connect4 hook for the network filter, and a system-wide LSM file_open
// hook for the file filter (LSM attachment is never cgroup-scoped — see
// AttachLSM). Attachment bookkeeping and map registration are delegated to
// internal/ebpf/hooks and internal/ebpf/maps respectively, so the loader
// itself is only responsible for turning a spec into a live collection.
package loader

import (
	"fmt"
	"os"
	"sync"

	"github.com/cilium/ebpf"

	"mori.run/mori/internal/ebpf/hooks"
	"mori.run/mori/internal/ebpf/maps"
)

// Loader holds one loaded eBPF collection, its program set, and the hook
// and map managers that track what's attached and registered from it.
type Loader struct {
	collection *ebpf.Collection
	programs   map[string]*ebpf.Program
	hooks      *hooks.Manager
	maps       *maps.Manager
	loaded     bool
	mutex      sync.Mutex
}

// NewLoader returns an empty, unloaded Loader.
func NewLoader() *Loader {
	return &Loader{
		programs: make(map[string]*ebpf.Program),
		hooks:    hooks.NewManager(),
	}
}

// LoadCollection instantiates programs and maps from spec into the kernel
// and registers every map with the loader's maps.Manager.
func (l *Loader) LoadCollection(spec *ebpf.CollectionSpec) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.loaded {
		return fmt.Errorf("collection already loaded")
	}

	collection, err := ebpf.NewCollection(spec)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	mapMgr := maps.NewManager(collection)
	for name, m := range collection.Maps {
		if err := mapMgr.RegisterMap(name, m); err != nil {
			collection.Close()
			return fmt.Errorf("failed to register map %s: %w", name, err)
		}
	}

	l.collection = collection
	l.maps = mapMgr
	for name, program := range collection.Programs {
		l.programs[name] = program
	}
	l.loaded = true
	return nil
}

// AttachCgroup attaches program name to cgroupFd at the given attach type
// (ebpf.AttachCGroupInet4Connect for the network filter).
func (l *Loader) AttachCgroup(name string, cgroupFd *os.File, attachType ebpf.AttachType) error {
	prog, err := l.program(name)
	if err != nil {
		return err
	}
	return l.hooks.AttachCgroup(name, prog, cgroupFd, attachType)
}

// AttachLSM attaches program name system-wide to its BTF-declared LSM hook.
// LSM attachment cannot be scoped to a cgroup (the LSM hook is sleepable,
// and cgroup-scoped attachment does not support sleepable programs), so the
// program itself must filter by cgroup id at runtime.
func (l *Loader) AttachLSM(name string) error {
	prog, err := l.program(name)
	if err != nil {
		return err
	}
	return l.hooks.AttachLSM(name, prog)
}

func (l *Loader) program(name string) (*ebpf.Program, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	prog, ok := l.programs[name]
	if !ok {
		return nil, fmt.Errorf("program %s not found in collection", name)
	}
	return prog, nil
}

// RawMap returns the underlying *ebpf.Map by name. The network and file
// filters both key on raw structs (LPM trie keys, fixed-width path keys),
// so they talk to *ebpf.Map directly rather than through a typed wrapper.
func (l *Loader) RawMap(name string) (*ebpf.Map, error) {
	l.mutex.Lock()
	mapMgr := l.maps
	l.mutex.Unlock()
	if mapMgr == nil {
		return nil, fmt.Errorf("map %s not found", name)
	}

	mm, err := mapMgr.GetMap(name)
	if err != nil {
		return nil, err
	}
	return mm.Map, nil
}

// Close detaches every attached hook and releases the collection.
func (l *Loader) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	firstErr := l.hooks.DetachAll()
	if l.collection != nil {
		l.collection.Close()
	}

	l.loaded = false
	l.programs = make(map[string]*ebpf.Program)
	l.maps = nil
	return firstErr
}
