// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filefilter

import (
	"os"

	"mori.run/mori/internal/ebpf/programs"
)

// RealController drives the file_open eBPF program's deny table.
type RealController struct {
	program *programs.FileOpenProgram
}

// NewRealController loads and attaches the file_open program, scoping it to
// cgroupDir's cgroup id.
func NewRealController(cgroupDir *os.File) (*RealController, error) {
	cgroupID, err := programs.StatCgroupID(cgroupDir)
	if err != nil {
		return nil, err
	}

	p, err := programs.NewFileOpenProgram(cgroupID)
	if err != nil {
		return nil, err
	}
	return &RealController{program: p}, nil
}

// DenyPath implements Controller.
func (c *RealController) DenyPath(path string, mode uint8) error {
	return c.program.DenyPath(path, mode)
}

// Close implements Controller.
func (c *RealController) Close() error {
	return c.program.Close()
}

var _ Controller = (*RealController)(nil)
