// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package policy implements the entry parser and the typed network/file
// policy model mori enforces against a launched command.
package policy

import (
	"net"
	"strconv"
	"strings"

	"mori.run/mori/internal/morierr"
)

// EntryKind tags the parsed form of a raw policy entry.
type EntryKind int

const (
	EntryIP EntryKind = iota
	EntryCIDR
	EntryDomain
)

// Entry is the normalized form of one raw "--allow-network"/config list
// element: an IPv4 address, an IPv4 CIDR, or a domain label. Any port
// present in the textual form is validated and then discarded — mori does
// not do protocol-aware filtering.
type Entry struct {
	Kind   EntryKind
	IP     net.IP // set for EntryIP and EntryCIDR (network address, low bits per Prefix zeroed by caller if desired)
	Prefix int    // set for EntryCIDR, 0..=32
	Domain string // set for EntryDomain
}

// ParsedEntries is the deduplicated result of parsing a batch of raw
// entries, partitioned by kind.
type ParsedEntries struct {
	IPv4    []net.IP
	CIDR    []CIDREntry
	Domains []string
}

// CIDREntry is a parsed IPv4/prefix pair.
type CIDREntry struct {
	IP     net.IP
	Prefix int
}

// ParseEntries parses a batch of raw entries into a deduplicated,
// kind-partitioned result. Any IPv6-shaped input fails the whole batch with
// a morierr KindConfig error; a textual IPv4 octet that doesn't parse but is
// otherwise label-shaped is accepted as a domain (validation is deferred to
// the resolver).
func ParseEntries(raw []string) (ParsedEntries, error) {
	v4Seen := make(map[string]net.IP)
	cidrSeen := make(map[string]CIDREntry)
	domainSeen := make(map[string]struct{})

	for _, entry := range raw {
		text := strings.TrimSpace(entry)
		if text == "" {
			continue
		}

		e, err := parseSingleEntry(text)
		if err != nil {
			return ParsedEntries{}, morierr.Wrap(err, morierr.KindConfig, "invalid allow-network entry '"+entry+"'")
		}

		switch e.Kind {
		case EntryIP:
			v4Seen[e.IP.String()] = e.IP
		case EntryCIDR:
			key := e.IP.String() + "/" + strconv.Itoa(e.Prefix)
			cidrSeen[key] = CIDREntry{IP: e.IP, Prefix: e.Prefix}
		case EntryDomain:
			domainSeen[e.Domain] = struct{}{}
		}
	}

	out := ParsedEntries{}
	for _, ip := range v4Seen {
		out.IPv4 = append(out.IPv4, ip)
	}
	for _, c := range cidrSeen {
		out.CIDR = append(out.CIDR, c)
	}
	for d := range domainSeen {
		out.Domains = append(out.Domains, d)
	}
	return out, nil
}

// parseSingleEntry implements the grammar: ip | cidr | ip:port | domain |
// domain:port, rejecting any IPv6-shaped input.
func parseSingleEntry(text string) (Entry, error) {
	if strings.Contains(text, "/") {
		host, prefixStr, _ := strings.Cut(text, "/")
		ip := net.ParseIP(host)
		if ip == nil {
			return Entry{}, morierr.Errorf(morierr.KindConfig, "invalid CIDR host %q", host)
		}
		v4 := ip.To4()
		if v4 == nil {
			return Entry{}, morierr.New(morierr.KindConfig, "IPv6 addresses are not supported")
		}
		prefix, err := strconv.Atoi(prefixStr)
		if err != nil || prefix < 0 || prefix > 32 {
			return Entry{}, morierr.Errorf(morierr.KindConfig, "invalid CIDR prefix %q", prefixStr)
		}
		return Entry{Kind: EntryCIDR, IP: v4, Prefix: prefix}, nil
	}

	if ip := net.ParseIP(text); ip != nil {
		v4 := ip.To4()
		if v4 == nil {
			return Entry{}, morierr.New(morierr.KindConfig, "IPv6 addresses are not supported")
		}
		return Entry{Kind: EntryIP, IP: v4}, nil
	}

	if strings.HasPrefix(text, "[") {
		return Entry{}, morierr.New(morierr.KindConfig, "IPv6 addresses are not supported")
	}

	if idx := strings.LastIndex(text, ":"); idx > 0 {
		host, portStr := text[:idx], text[idx+1:]
		if allDigits(portStr) {
			if _, err := strconv.ParseUint(portStr, 10, 16); err == nil {
				return parseHostOnly(host)
			}
		}
	}

	return Entry{Kind: EntryDomain, Domain: text}, nil
}

func parseHostOnly(host string) (Entry, error) {
	if ip := net.ParseIP(host); ip != nil {
		v4 := ip.To4()
		if v4 == nil {
			return Entry{}, morierr.New(morierr.KindConfig, "IPv6 addresses are not supported")
		}
		return Entry{Kind: EntryIP, IP: v4}, nil
	}
	if strings.HasPrefix(host, "[") {
		return Entry{}, morierr.New(morierr.KindConfig, "IPv6 addresses are not supported")
	}
	return Entry{Kind: EntryDomain, Domain: host}, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
