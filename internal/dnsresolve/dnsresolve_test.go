// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dnsresolve

import (
	"errors"
	"net"
	"testing"
	"time"

	"mori.run/mori/internal/dnscache"
)

func TestMockResolverScriptedSequence(t *testing.T) {
	first := Resolved{Domains: []DomainRecords{{
		Domain:  "example.test",
		Records: []dnscache.Entry{{IP: net.ParseIP("8.8.8.8"), ExpiresAt: time.Now().Add(time.Millisecond)}},
	}}}
	second := Resolved{Domains: []DomainRecords{{
		Domain:  "example.test",
		Records: []dnscache.Entry{{IP: net.ParseIP("9.9.9.9"), ExpiresAt: time.Now().Add(time.Second)}},
	}}}

	m := NewMockResolver([]Resolved{first, second}, nil)

	r1, err := m.Resolve([]string{"example.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r1.Domains[0].Records[0].IP.Equal(net.ParseIP("8.8.8.8")) {
		t.Errorf("expected first scripted result")
	}

	r2, _ := m.Resolve([]string{"example.test"})
	if !r2.Domains[0].Records[0].IP.Equal(net.ParseIP("9.9.9.9")) {
		t.Errorf("expected second scripted result")
	}

	if m.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", m.Calls())
	}
}

func TestMockResolverErrors(t *testing.T) {
	wantErr := errors.New("boom")
	m := NewMockResolver(nil, []error{wantErr})
	_, err := m.Resolve([]string{"example.test"})
	if err != wantErr {
		t.Errorf("expected scripted error, got %v", err)
	}
}
