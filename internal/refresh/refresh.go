// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package refresh runs the cooperative background loop that keeps the
// network filter's allow table in sync with DNS, sleeping until the
// soonest-expiring cache entry or a default interval, whichever comes
// first, and waking early on shutdown.
package refresh

import (
	"net"
	"sync"
	"time"

	"mori.run/mori/internal/dnscache"
	"mori.run/mori/internal/dnsresolve"
	"mori.run/mori/internal/morilog"
	"mori.run/mori/internal/netfilter"
	"mori.run/mori/internal/shutdown"
)

// DefaultInterval is the fallback sleep when the cache holds no entries yet.
const DefaultInterval = 30 * time.Second

// Loop drives one resolver against one cache and one network filter
// controller until shut down.
type Loop struct {
	domains   []string
	cache     *dnscache.Cache
	resolver  dnsresolve.Resolver
	filter    netfilter.Controller
	signal    *shutdown.Signal
	log       morilog.Logger
	nsAllowed map[string]struct{}
	nsMu      sync.Mutex
}

// New returns a Loop over domains. A nil or empty domains list is valid —
// Run returns immediately without resolving or sleeping, matching the
// upstream behavior of never spawning a refresh thread when there is
// nothing to refresh.
func New(domains []string, cache *dnscache.Cache, resolver dnsresolve.Resolver, filter netfilter.Controller, signal *shutdown.Signal, log morilog.Logger) *Loop {
	return &Loop{
		domains:   domains,
		cache:     cache,
		resolver:  resolver,
		filter:    filter,
		signal:    signal,
		log:       log,
		nsAllowed: make(map[string]struct{}),
	}
}

// Run blocks until the shutdown signal fires, sleeping between DNS
// refreshes for the soonest TTL expiry in the cache (or DefaultInterval
// absent any cached entry). Resolver failures are logged and do not stop
// the loop.
func (l *Loop) Run() {
	if len(l.domains) == 0 {
		return
	}

	for {
		now := time.Now()
		sleepDuration := DefaultInterval
		if next, ok := l.cache.NextRefreshIn(now); ok {
			sleepDuration = next
		}

		if l.signal.WaitTimeout(sleepDuration) {
			return
		}

		resolved, err := l.resolver.Resolve(l.domains)
		if err != nil {
			l.log.Warn("dns refresh failed", "error", err)
			continue
		}

		l.applyDomainRecords(resolved)
		l.applyNameservers(resolved.Nameservers)
	}
}

// applyDomainRecords diffs every resolved domain against the cache and
// pushes the result into the network filter, removing stale entries before
// adding fresh ones.
func (l *Loop) applyDomainRecords(resolved dnsresolve.Resolved) {
	now := time.Now()
	type diffWithDomain struct {
		domain string
		diff   dnscache.UpdateDiff
	}
	diffs := make([]diffWithDomain, 0, len(resolved.Domains))
	for _, d := range resolved.Domains {
		diffs = append(diffs, diffWithDomain{domain: d.Domain, diff: l.cache.Apply(d.Domain, now, d.Records)})
	}

	for _, d := range diffs {
		for _, ip := range d.diff.Removed {
			if err := l.filter.RemoveNetwork(ip, 32); err != nil {
				l.log.Warn("failed to remove resolved address", "domain", d.domain, "ip", ip.String(), "error", err)
				continue
			}
			l.log.Info("removed resolved address", "domain", d.domain, "ip", ip.String())
		}
		for _, ip := range d.diff.Added {
			if err := l.filter.AllowNetwork(ip, 32); err != nil {
				l.log.Warn("failed to allow resolved address", "domain", d.domain, "ip", ip.String(), "error", err)
				continue
			}
			l.log.Info("allowed resolved address", "domain", d.domain, "ip", ip.String())
		}
	}
}

// applyNameservers admits each nameserver IP exactly once for the process
// lifetime; a nameserver already admitted is never re-inserted or removed.
func (l *Loop) applyNameservers(nameservers []net.IP) {
	l.nsMu.Lock()
	defer l.nsMu.Unlock()

	for _, ip := range nameservers {
		key := ip.String()
		if _, seen := l.nsAllowed[key]; seen {
			continue
		}
		if err := l.filter.AllowNetwork(ip, 32); err != nil {
			l.log.Warn("failed to allow nameserver", "ip", key, "error", err)
			continue
		}
		l.nsAllowed[key] = struct{}{}
		l.log.Info("allowed nameserver", "ip", key)
	}
}
