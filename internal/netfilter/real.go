// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netfilter

import (
	"net"
	"os"

	"mori.run/mori/internal/ebpf/programs"
)

// RealController drives the connect4 eBPF program's allow table.
type RealController struct {
	program *programs.Connect4Program
}

// NewRealController loads and attaches the connect4 program to cgroupDir.
func NewRealController(cgroupDir *os.File) (*RealController, error) {
	p, err := programs.NewConnect4Program(cgroupDir)
	if err != nil {
		return nil, err
	}
	return &RealController{program: p}, nil
}

// AllowNetwork implements Controller.
func (c *RealController) AllowNetwork(addr net.IP, prefixLen uint8) error {
	return c.program.AllowNetwork(addr, prefixLen)
}

// RemoveNetwork implements Controller.
func (c *RealController) RemoveNetwork(addr net.IP, prefixLen uint8) error {
	return c.program.RemoveNetwork(addr, prefixLen)
}

// Close implements Controller.
func (c *RealController) Close() error {
	return c.program.Close()
}

var _ Controller = (*RealController)(nil)
