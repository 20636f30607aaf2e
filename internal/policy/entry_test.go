// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import "testing"

func TestParseEntriesIPv4(t *testing.T) {
	parsed, err := ParseEntries([]string{"192.168.1.1", "10.0.0.1", "192.168.1.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.IPv4) != 2 {
		t.Errorf("expected 2 unique IPv4 entries, got %d", len(parsed.IPv4))
	}
}

func TestParseEntriesDomains(t *testing.T) {
	parsed, err := ParseEntries([]string{"example.com", "example.com", "sub.example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Domains) != 2 {
		t.Errorf("expected 2 unique domains, got %d", len(parsed.Domains))
	}
}

func TestParseEntriesCIDR(t *testing.T) {
	parsed, err := ParseEntries([]string{"10.0.0.0/24"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.CIDR) != 1 || parsed.CIDR[0].Prefix != 24 {
		t.Errorf("expected one /24 entry, got %+v", parsed.CIDR)
	}
}

func TestParseEntriesWithPorts(t *testing.T) {
	parsed, err := ParseEntries([]string{"192.168.1.1:8080", "example.com:443"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.IPv4) != 1 || len(parsed.Domains) != 1 {
		t.Errorf("expected 1 ipv4 and 1 domain, got %+v", parsed)
	}
}

func TestParseEntriesRejectsIPv6(t *testing.T) {
	cases := []string{"::1", "2001:db8::1", "[::1]:443"}
	for _, c := range cases {
		if _, err := ParseEntries([]string{c}); err == nil {
			t.Errorf("expected error for IPv6 entry %q", c)
		}
	}
}

func TestParseEntriesInvalidIPv4IsDomain(t *testing.T) {
	parsed, err := ParseEntries([]string{"999.1.1.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Domains) != 1 || len(parsed.IPv4) != 0 {
		t.Errorf("expected out-of-range octet to be treated as a domain, got %+v", parsed)
	}
}

func TestParseEntriesEmptyAndWhitespaceSkipped(t *testing.T) {
	parsed, err := ParseEntries([]string{"", "   ", "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Domains) != 1 {
		t.Errorf("expected only one domain entry, got %+v", parsed)
	}
}
