// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package policy

import "testing"

func TestFromEntriesDedupes(t *testing.T) {
	p, err := FromEntries([]string{"192.0.2.1", "example.com", "192.0.2.1", "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.IPv4()) != 1 || len(p.Domains()) != 1 {
		t.Errorf("expected deduped sets, got ipv4=%v domains=%v", p.IPv4(), p.Domains())
	}
}

func TestMergeCombinesUniqueValues(t *testing.T) {
	base, _ := FromEntries([]string{"192.0.2.1", "example.com"})
	other, _ := FromEntries([]string{"198.51.100.1", "test.example"})
	base.Merge(other)
	if len(base.IPv4()) != 2 || len(base.Domains()) != 2 {
		t.Errorf("expected merged unique sets, got ipv4=%v domains=%v", base.IPv4(), base.Domains())
	}
}

func TestMergeAvoidsDuplicates(t *testing.T) {
	base, _ := FromEntries([]string{"192.0.2.1", "example.com"})
	other, _ := FromEntries([]string{"192.0.2.1", "example.com"})
	base.Merge(other)
	if len(base.IPv4()) != 1 || len(base.Domains()) != 1 {
		t.Errorf("expected no duplicates after merge, got ipv4=%v domains=%v", base.IPv4(), base.Domains())
	}
}

func TestMergeAllowAllIsAbsorbing(t *testing.T) {
	base, _ := FromEntries([]string{"192.0.2.1"})
	base.Merge(AllowAll())
	if !base.IsAllowAll() {
		t.Errorf("expected AllowAll to absorb base")
	}

	other := AllowAll()
	plain, _ := FromEntries([]string{"192.0.2.1"})
	other.Merge(plain)
	if !other.IsAllowAll() {
		t.Errorf("expected AllowAll to remain AllowAll after merging entries into it")
	}
}

func TestMergeAssociative(t *testing.T) {
	// NetworkPolicy shares its maps on copy, so each side gets fresh values.
	a := func() NetworkPolicy { p, _ := FromEntries([]string{"192.0.2.1"}); return p }
	b := func() NetworkPolicy { p, _ := FromEntries([]string{"192.0.2.2"}); return p }
	c := func() NetworkPolicy { p, _ := FromEntries([]string{"192.0.2.3"}); return p }

	left := a()
	bc := b()
	bc.Merge(c())
	left.Merge(bc)

	right := a()
	right.Merge(b())
	right.Merge(c())

	if len(left.IPv4()) != len(right.IPv4()) {
		t.Errorf("merge is not associative: left=%v right=%v", left.IPv4(), right.IPv4())
	}
}

func TestIsEmpty(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Errorf("Empty() should be empty")
	}
	if AllowAll().IsEmpty() {
		t.Errorf("AllowAll() should not report empty")
	}
	p, _ := FromEntries([]string{"192.0.2.1"})
	if p.IsEmpty() {
		t.Errorf("policy with entries should not be empty")
	}
}
