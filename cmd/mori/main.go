// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command mori launches a single target command with its outbound IPv4
// connections and file-open operations confined to a declarative
// allow/deny policy.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"mori.run/mori/cmd"
	"mori.run/mori/internal/cgroupmgr"
	"mori.run/mori/internal/hostcheck"
	"mori.run/mori/internal/launcher"
	"mori.run/mori/internal/morilog"
	"mori.run/mori/internal/moriconfig"
)

// csvFlag collects repeated or comma-separated occurrences of a flag into a
// single string slice, mirroring the original CLI's value_delimiter=','
// behavior for --allow-network et al.
type csvFlag struct {
	values []string
}

func (c *csvFlag) String() string { return strings.Join(c.values, ",") }

func (c *csvFlag) Set(raw string) error {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			c.values = append(c.values, part)
		}
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("mori", flag.ContinueOnError)

	var configPath string
	var allowNetworkAll bool
	var allowNetwork, denyFile, denyFileRead, denyFileWrite csvFlag

	fs.StringVar(&configPath, "config", "", "path to configuration file (TOML)")
	fs.BoolVar(&allowNetworkAll, "allow-network-all", false, "allow all outbound network connections")
	fs.Var(&allowNetwork, "allow-network", "comma-separated list of allowed host[:port]/CIDR/domain entries")
	fs.Var(&denyFile, "deny-file", "comma-separated list of paths denied read and write")
	fs.Var(&denyFileRead, "deny-file-read", "comma-separated list of paths denied read")
	fs.Var(&denyFileWrite, "deny-file-write", "comma-separated list of paths denied write")

	if err := fs.Parse(argv); err != nil {
		return 2
	}

	command := fs.Args()
	if len(command) == 0 {
		fmt.Fprintln(os.Stderr, "mori: a command to execute is required")
		return 2
	}

	log := morilog.New()

	if err := cmd.SetProcessName("mori"); err != nil {
		log.Warn("failed to set process name", "error", err)
	}

	for _, req := range hostcheck.Verify(cgroupmgr.Root) {
		if req.Fatal {
			log.Error("unmet host requirement", "feature", req.Feature, "message", req.Message)
			return 1
		}
		log.Warn("degraded host requirement", "feature", req.Feature, "message", req.Message)
	}

	resolved, err := moriconfig.Resolve(moriconfig.Flags{
		ConfigPath:      configPath,
		AllowNetwork:    allowNetwork.values,
		AllowNetworkAll: allowNetworkAll,
		DenyFile:        denyFile.values,
		DenyFileRead:    denyFileRead.values,
		DenyFileWrite:   denyFileWrite.values,
		Command:         command,
	})
	if err != nil {
		log.Error("failed to resolve policy", "error", err)
		return 1
	}

	l := launcher.New(resolved.Network, resolved.File, command, log)
	code, err := l.Run()
	if err != nil {
		log.Error("launch failed", "error", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}
