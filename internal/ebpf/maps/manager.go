// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package maps provides a small name-keyed registry over the two eBPF maps
// mori's filters maintain: the IPv4 LPM allow-table and the path-keyed
// deny-table.
package maps

import (
	"fmt"
	"sync"
	"time"

	"github.com/cilium/ebpf"
)

// Manager tracks the maps loaded from one eBPF collection, keyed by name.
type Manager struct {
	maps       map[string]*ManagedMap
	collection *ebpf.Collection
	mutex      sync.RWMutex
}

// ManagedMap wraps an *ebpf.Map with metadata and mutex-guarded operations.
type ManagedMap struct {
	Name       string
	Map        *ebpf.Map
	Type       ebpf.MapType
	KeySize    uint32
	ValueSize  uint32
	MaxEntries uint32
	CreatedAt  time.Time
	mutex      sync.RWMutex
}

// NewManager returns a Manager backed by collection.
func NewManager(collection *ebpf.Collection) *Manager {
	return &Manager{
		maps:       make(map[string]*ManagedMap),
		collection: collection,
	}
}

// RegisterMap registers mapObj under name.
func (m *Manager) RegisterMap(name string, mapObj *ebpf.Map) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.maps[name]; exists {
		return fmt.Errorf("map %s already registered", name)
	}

	info, err := mapObj.Info()
	if err != nil {
		return fmt.Errorf("failed to get map info: %w", err)
	}

	m.maps[name] = &ManagedMap{
		Name:       name,
		Map:        mapObj,
		KeySize:    uint32(info.KeySize),
		ValueSize:  uint32(info.ValueSize),
		MaxEntries: info.MaxEntries,
		Type:       info.Type,
		CreatedAt:  time.Now(),
	}
	return nil
}

// GetMap returns the managed map registered under name.
func (m *Manager) GetMap(name string) (*ManagedMap, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	mm, exists := m.maps[name]
	if !exists {
		return nil, fmt.Errorf("map %s not found", name)
	}
	return mm, nil
}

// Update upserts key → value, overwriting any existing entry.
func (mm *ManagedMap) Update(key, value interface{}) error {
	mm.mutex.Lock()
	defer mm.mutex.Unlock()
	return mm.Map.Update(key, value, ebpf.UpdateAny)
}

// Lookup reads the value for key into value.
func (mm *ManagedMap) Lookup(key, value interface{}) error {
	mm.mutex.RLock()
	defer mm.mutex.RUnlock()
	return mm.Map.Lookup(key, value)
}

// Delete removes key. A missing key is returned as ebpf.ErrKeyNotExist by
// the underlying map, which callers (notably the network filter's remove
// path) are expected to tolerate as a non-error.
func (mm *ManagedMap) Delete(key interface{}) error {
	mm.mutex.Lock()
	defer mm.mutex.Unlock()
	return mm.Map.Delete(key)
}

// Iterator returns a thread-safe iterator over the map's entries.
func (mm *ManagedMap) Iterator() *MapIterator {
	return &MapIterator{mapIter: mm.Map.Iterate(), mutex: &mm.mutex}
}

// MapIterator wraps *ebpf.MapIterator with the owning map's mutex.
type MapIterator struct {
	mapIter *ebpf.MapIterator
	mutex   *sync.RWMutex
}

// Next advances the iterator, decoding the next key/value pair.
func (it *MapIterator) Next(key, value interface{}) bool {
	it.mutex.RLock()
	defer it.mutex.RUnlock()
	return it.mapIter.Next(key, value)
}

// Err returns any error encountered during iteration.
func (it *MapIterator) Err() error {
	return it.mapIter.Err()
}

