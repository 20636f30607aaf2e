// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

import (
	"net"
	"testing"
)

func TestNetworkKeyMasksToNetworkAddress(t *testing.T) {
	key := networkKey(net.ParseIP("10.1.2.3"), 24)
	if key.PrefixLen != 24 {
		t.Fatalf("expected prefixlen 24, got %d", key.PrefixLen)
	}
	want := [4]byte{10, 1, 2, 0}
	if key.Data != want {
		t.Errorf("expected masked network %v, got %v", want, key.Data)
	}
}

func TestNetworkKeySingleHost(t *testing.T) {
	key := networkKey(net.ParseIP("192.168.0.5"), 32)
	want := [4]byte{192, 168, 0, 5}
	if key.Data != want {
		t.Errorf("expected unmasked host %v, got %v", want, key.Data)
	}
}

func TestNetworkKeyDefaultRoute(t *testing.T) {
	key := networkKey(net.ParseIP("203.0.113.9"), 0)
	want := [4]byte{0, 0, 0, 0}
	if key.Data != want {
		t.Errorf("expected fully masked network %v, got %v", want, key.Data)
	}
}
