// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"

	"github.com/cilium/ebpf"

	"mori.run/mori/internal/ebpf/loader"
)

// Connect4ProgramName is the cgroup/connect4 program exposed by the
// generated collection.
const Connect4ProgramName = "mori_connect4"

// AllowV4MapName is the LPM trie keyed by prefix length + big-endian IPv4
// network address that the connect4 program consults on every outbound
// connect(2).
const AllowV4MapName = "ALLOW_V4_LPM"

// Connect4Program loads and attaches the network admission hook.
type Connect4Program struct {
	loader *loader.Loader
}

// lpmKey mirrors the C struct { __u32 prefixlen; __u8 data[4]; } expected by
// an LPM_TRIE map of IPv4 network keys.
type lpmKey struct {
	PrefixLen uint32
	Data      [4]byte
}

// NewConnect4Program loads the connect4 collection and attaches it to
// cgroupDir's cgroup_inet4_connect hook.
func NewConnect4Program(cgroupDir *os.File) (*Connect4Program, error) {
	spec, err := LoadConnect4()
	if err != nil {
		return nil, fmt.Errorf("failed to load connect4 spec: %w", err)
	}

	l := loader.NewLoader()
	if err := l.LoadCollection(spec); err != nil {
		return nil, fmt.Errorf("failed to load connect4 collection: %w", err)
	}

	if err := l.AttachCgroup(Connect4ProgramName, cgroupDir, ebpf.AttachCGroupInet4Connect); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to attach connect4 program: %w", err)
	}

	return &Connect4Program{loader: l}, nil
}

// AllowNetwork inserts addr/prefixLen into the allow table. prefixLen==32
// admits a single host; anything smaller admits the whole network. Calling
// this again for the same network overwrites the previous entry.
func (p *Connect4Program) AllowNetwork(addr net.IP, prefixLen uint8) error {
	if prefixLen > 32 {
		return fmt.Errorf("invalid IPv4 prefix length %d", prefixLen)
	}

	m, err := p.loader.RawMap(AllowV4MapName)
	if err != nil {
		return err
	}

	key := networkKey(addr, prefixLen)
	return m.Update(&key, uint8(1), ebpf.UpdateAny)
}

// RemoveNetwork deletes addr/prefixLen from the allow table. A missing
// entry is not an error.
func (p *Connect4Program) RemoveNetwork(addr net.IP, prefixLen uint8) error {
	m, err := p.loader.RawMap(AllowV4MapName)
	if err != nil {
		return err
	}

	key := networkKey(addr, prefixLen)
	if err := m.Delete(&key); err != nil {
		if err == ebpf.ErrKeyNotExist {
			return nil
		}
		return err
	}
	return nil
}

// Close detaches the connect4 program and releases the collection.
func (p *Connect4Program) Close() error {
	return p.loader.Close()
}

// networkKey masks addr to its network address under prefixLen and encodes
// it as the LPM trie expects: prefix length followed by the big-endian
// address bytes.
func networkKey(addr net.IP, prefixLen uint8) lpmKey {
	v4 := addr.To4()
	bits := binary.BigEndian.Uint32(v4)

	var mask uint32
	if prefixLen > 0 {
		mask = ^uint32(0) << (32 - prefixLen)
	}
	network := bits & mask

	var key lpmKey
	key.PrefixLen = uint32(prefixLen)
	binary.BigEndian.PutUint32(key.Data[:], network)
	return key
}
