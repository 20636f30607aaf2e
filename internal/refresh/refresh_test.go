// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package refresh

import (
	"net"
	"testing"
	"time"

	"mori.run/mori/internal/dnscache"
	"mori.run/mori/internal/dnsresolve"
	"mori.run/mori/internal/morilog"
	"mori.run/mori/internal/netfilter"
	"mori.run/mori/internal/shutdown"
)

func TestRunReturnsImmediatelyWithNoDomains(t *testing.T) {
	sig := shutdown.New()
	l := New(nil, dnscache.New(), dnsresolve.NewMockResolver(nil, nil), netfilter.NewMockController(), sig, morilog.Nop())

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return immediately for an empty domain list")
	}
}

func TestRunAppliesResolvedRecordsAndStopsOnShutdown(t *testing.T) {
	resolved := dnsresolve.Resolved{
		Domains: []dnsresolve.DomainRecords{{
			Domain: "example.test",
			Records: []dnscache.Entry{{
				IP:        net.ParseIP("8.8.8.8"),
				ExpiresAt: time.Now().Add(time.Hour),
			}},
		}},
		Nameservers: []net.IP{net.ParseIP("1.1.1.1")},
	}

	sig := shutdown.New()
	filter := netfilter.NewMockController()
	resolver := dnsresolve.NewMockResolver([]dnsresolve.Resolved{resolved}, nil)
	cache := dnscache.New()
	// Pre-expire the cache so the loop refreshes almost immediately.
	cache.Apply("example.test", time.Now(), []dnscache.Entry{{
		IP:        net.ParseIP("9.9.9.9"),
		ExpiresAt: time.Now().Add(time.Millisecond),
	}})

	l := New([]string{"example.test"}, cache, resolver, filter, sig, morilog.Nop())

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !filter.IsAllowed(net.ParseIP("8.8.8.8"), 32) {
		if time.Now().After(deadline) {
			t.Fatal("expected resolved address to become allowed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !filter.IsAllowed(net.ParseIP("1.1.1.1"), 32) {
		t.Error("expected nameserver to be allowed")
	}

	sig.Signal()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after shutdown signal")
	}
}

func TestRunToleratesResolverFailure(t *testing.T) {
	sig := shutdown.New()
	filter := netfilter.NewMockController()
	resolver := dnsresolve.NewMockResolver(nil, []error{errBoom})
	cache := dnscache.New()
	cache.Apply("example.test", time.Now(), []dnscache.Entry{{
		IP:        net.ParseIP("1.2.3.4"),
		ExpiresAt: time.Now().Add(time.Millisecond),
	}})

	l := New([]string{"example.test"}, cache, resolver, filter, sig, morilog.Nop())

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	// Give it a moment to hit the failing resolve at least once, then shut down.
	time.Sleep(20 * time.Millisecond)
	sig.Signal()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after shutdown signal despite resolver failures")
	}
}

type staticError string

func (e staticError) Error() string { return string(e) }

const errBoom staticError = "boom"
