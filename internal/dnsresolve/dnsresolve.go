// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package dnsresolve resolves domain names to IPv4 addresses with their TTL
// expiry, and discovers the system resolver's own nameserver addresses (so
// they can be admitted to the network filter — lookups can't happen at all
// otherwise).
package dnsresolve

import (
	"net"
	"time"

	"github.com/miekg/dns"

	"mori.run/mori/internal/dnscache"
	"mori.run/mori/internal/morierr"
)

const resolvConf = "/etc/resolv.conf"

// DomainRecords is one domain's resolved IPv4 entries.
type DomainRecords struct {
	Domain  string
	Records []dnscache.Entry
}

// Resolved is the result of one resolution pass across a batch of domains.
type Resolved struct {
	Domains     []DomainRecords
	Nameservers []net.IP
}

// Resolver resolves a batch of domains to IPv4 addresses, and reports the
// nameservers consulted. Kept narrow and swappable so tests can substitute
// a deterministic stub for the system resolver.
type Resolver interface {
	Resolve(domains []string) (Resolved, error)
}

// SystemResolver resolves via the nameservers configured in /etc/resolv.conf
// (or a caller-supplied path), using one UDP exchange per domain with
// automatic fallback to the next configured nameserver on transport error.
type SystemResolver struct {
	ConfigPath string
	Client     *dns.Client
}

// NewSystemResolver returns a SystemResolver reading /etc/resolv.conf.
func NewSystemResolver() *SystemResolver {
	return &SystemResolver{
		ConfigPath: resolvConf,
		Client:     &dns.Client{Timeout: 5 * time.Second},
	}
}

// Resolve implements Resolver.
func (r *SystemResolver) Resolve(domains []string) (Resolved, error) {
	if len(domains) == 0 {
		return Resolved{}, nil
	}

	cfg, err := dns.ClientConfigFromFile(r.ConfigPath)
	if err != nil {
		return Resolved{}, morierr.Wrap(err, morierr.KindResolver, "failed to read resolver configuration")
	}
	if len(cfg.Servers) == 0 {
		return Resolved{}, morierr.New(morierr.KindResolver, "no nameservers configured")
	}

	nameservers := collectNameserverIPs(cfg)

	var out []DomainRecords
	for _, domain := range domains {
		records, err := r.resolveOne(cfg, domain)
		if err != nil {
			return Resolved{}, morierr.Attr(
				morierr.Wrap(err, morierr.KindResolver, "failed to resolve domain"),
				"domain", domain,
			)
		}
		if len(records) > 0 {
			out = append(out, DomainRecords{Domain: domain, Records: records})
		}
	}

	return Resolved{Domains: out, Nameservers: nameservers}, nil
}

func (r *SystemResolver) resolveOne(cfg *dns.ClientConfig, domain string) ([]dnscache.Entry, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range cfg.Servers {
		addr := net.JoinHostPort(server, cfg.Port)
		resp, _, err := r.Client.Exchange(msg, addr)
		if err != nil {
			lastErr = err
			continue
		}
		now := time.Now()
		var entries []dnscache.Entry
		for _, rr := range resp.Answer {
			a, ok := rr.(*dns.A)
			if !ok || a.A == nil {
				continue
			}
			v4 := a.A.To4()
			if v4 == nil {
				continue
			}
			entries = append(entries, dnscache.Entry{
				IP:        v4,
				ExpiresAt: now.Add(time.Duration(a.Hdr.Ttl) * time.Second),
			})
		}
		return entries, nil
	}
	return nil, lastErr
}

func collectNameserverIPs(cfg *dns.ClientConfig) []net.IP {
	seen := make(map[string]net.IP)
	for _, s := range cfg.Servers {
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		v4 := ip.To4()
		if v4 == nil {
			continue
		}
		seen[v4.String()] = v4
	}
	out := make([]net.IP, 0, len(seen))
	for _, ip := range seen {
		out = append(out, ip)
	}
	return out
}
