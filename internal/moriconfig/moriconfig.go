// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package moriconfig parses mori's TOML configuration file and merges it
// with CLI-flag-sourced policy.
package moriconfig

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"mori.run/mori/internal/morierr"
	"mori.run/mori/internal/policy"
)

// File is the on-disk TOML shape:
//
//	[network]
//	allow = true
//	# or
//	allow = ["192.0.2.1", "example.com", "10.0.0.0/24"]
type File struct {
	Network NetworkSection `toml:"network"`
}

// NetworkSection holds the network table's polymorphic allow key.
type NetworkSection struct {
	Allow NetworkAllow `toml:"allow"`
}

// NetworkAllow decodes either a bare `true`/`false` (allow-all / deny-all)
// or a list of entry strings, mirroring the CLI's separate
// --allow-network-all boolean flag and --allow-network entry list as one
// config-file key.
type NetworkAllow struct {
	AllowAll bool
	Entries  []string
}

// UnmarshalTOML fills a from the generically decoded value of the allow key
// (Load calls it), type-switching the way a dynamically-typed config key
// requires.
func (a *NetworkAllow) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case bool:
		a.AllowAll = v
		a.Entries = nil
		return nil
	case []any:
		entries := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("network.allow entries must be strings, got %T", item)
			}
			entries = append(entries, s)
		}
		a.Entries = entries
		return nil
	default:
		return fmt.Errorf("network.allow must be a bool or a list of strings, got %T", value)
	}
}

// Load reads and parses the TOML file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, morierr.Wrap(err, morierr.KindConfig, "failed to read config file")
	}

	var raw struct {
		Network struct {
			Allow any `toml:"allow"`
		} `toml:"network"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, morierr.Wrap(err, morierr.KindConfig, "failed to parse config file")
	}

	var f File
	if raw.Network.Allow != nil {
		if err := f.Network.Allow.UnmarshalTOML(raw.Network.Allow); err != nil {
			return nil, morierr.Wrap(err, morierr.KindConfig, "failed to parse config file")
		}
	}
	return &f, nil
}

// ToNetworkPolicy builds a policy.NetworkPolicy from the file's network
// table.
func (f *File) ToNetworkPolicy() (policy.NetworkPolicy, error) {
	if f.Network.Allow.AllowAll {
		return policy.AllowAll(), nil
	}
	return policy.FromEntries(f.Network.Allow.Entries)
}

// Flags is the CLI-flag-sourced policy input, independent of any config
// file.
type Flags struct {
	ConfigPath      string
	AllowNetwork    []string
	AllowNetworkAll bool
	DenyFile        []string
	DenyFileRead    []string
	DenyFileWrite   []string
	Command         []string
}

// Resolved is the fully merged policy mori launches with.
type Resolved struct {
	Network policy.NetworkPolicy
	File    policy.FilePolicy
}

// Resolve merges CLI flags with an optional config file. Network policy is
// a union (file ∪ flags, with either side's allow-all absorbing), in that
// order so the config file's entries are read first — matching the
// original CLI's merge order. File policy only ever comes from flags: mori
// has no config-file representation for denied paths.
func Resolve(flags Flags) (Resolved, error) {
	networkPolicy := policy.Empty()
	if flags.AllowNetworkAll {
		networkPolicy = policy.AllowAll()
	}

	if flags.ConfigPath != "" {
		file, err := Load(flags.ConfigPath)
		if err != nil {
			return Resolved{}, err
		}
		fileNetworkPolicy, err := file.ToNetworkPolicy()
		if err != nil {
			return Resolved{}, morierr.Wrap(err, morierr.KindConfig, "invalid network policy in config file")
		}
		networkPolicy.Merge(fileNetworkPolicy)
	}

	if !flags.AllowNetworkAll {
		cliNetworkPolicy, err := policy.FromEntries(flags.AllowNetwork)
		if err != nil {
			return Resolved{}, morierr.Wrap(err, morierr.KindConfig, "invalid --allow-network entry")
		}
		networkPolicy.Merge(cliNetworkPolicy)
	}

	filePolicy := policy.NewFilePolicy()
	for _, path := range flags.DenyFile {
		filePolicy.DenyReadWrite(path)
	}
	for _, path := range flags.DenyFileRead {
		filePolicy.DenyRead(path)
	}
	for _, path := range flags.DenyFileWrite {
		filePolicy.DenyWrite(path)
	}

	return Resolved{Network: networkPolicy, File: filePolicy}, nil
}
