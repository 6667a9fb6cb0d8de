// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symtab

import (
	"reflect"
	"strings"
	"testing"
)

func TestAddr(t *testing.T) {
	tab, err := New([]Entry{
		0: {"set_exception_with_id", 0x5000},
		1: {"invoke_native", 0x1000},
		2: {"call_indirect", 0x3000},
		3: {"alias_of_invoke_native", 0x1000},
	})
	if err != nil {
		t.Fatal(err)
	}
	check := func(label string, addr uint64, want int) {
		t.Helper()
		got, ok := tab.Addr(addr)
		if want < 0 {
			if ok {
				t.Errorf("%s: looking up %#x want none, got %d", label, addr, got)
			}
			return
		}
		if !ok || want != got {
			t.Errorf("%s: looking up %#x want %d, got %d (ok=%v)", label, addr, want, got, ok)
		}
	}
	check("exact address", 0x5000, 0)
	check("exact address", 0x3000, 2)
	check("shared address prefers lowest index", 0x1000, 1)
	check("between entries", 0x2000, -1)
	check("before first entry", 0x10, -1)
	check("past last entry", 0x6000, -1)
}

func TestName(t *testing.T) {
	tab, err := New([]Entry{
		{"set_exception_with_id", 0x5000},
		{"invoke_native", 0x1000},
	})
	if err != nil {
		t.Fatal(err)
	}
	check := func(name string, want int) {
		t.Helper()
		got, ok := tab.Name(name)
		if want < 0 {
			if ok {
				t.Errorf("looking up %s want none, got %d", name, got)
			}
			return
		}
		if !ok || want != got {
			t.Errorf("looking up %s want %d, got %d", name, want, got)
		}
	}
	check("set_exception_with_id", 0)
	check("invoke_native", 1)
	check("memmove", -1)
}

func TestNewErrors(t *testing.T) {
	for _, test := range []struct {
		entries []Entry
		want    string
	}{
		{[]Entry{{"a", 1}, {"a", 2}}, `symbol "a" appears at both index 0 and 1`},
		{[]Entry{{"a", 1}, {"", 2}}, "symbol 1 has no name"},
	} {
		_, err := New(test.entries)
		if err == nil || err.Error() != test.want {
			t.Errorf("New(%v): want error %q, got %v", test.entries, test.want, err)
		}
	}
}

func TestBind(t *testing.T) {
	names := []string{"enlarge_memory", "call_indirect", "__divdi3"}
	addrs := map[string]uint64{
		"call_indirect":  0x2000,
		"enlarge_memory": 0x1000,
		"__divdi3":       0x3000,
		"unused":         0x4000,
	}
	tab, err := Bind(names, Addrs(addrs))
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{"enlarge_memory", 0x1000},
		{"call_indirect", 0x2000},
		{"__divdi3", 0x3000},
	}
	if got := tab.Entries(); !reflect.DeepEqual(want, got) {
		t.Errorf("want entries %v, got %v", want, got)
	}
	if tab.Len() != len(names) {
		t.Errorf("want Len %d, got %d", len(names), tab.Len())
	}

	delete(addrs, "call_indirect")
	delete(addrs, "__divdi3")
	_, err = Bind(names, Addrs(addrs))
	if err == nil || !strings.Contains(err.Error(), `"call_indirect" "__divdi3"`) {
		t.Errorf("want unresolved-symbol error naming both symbols, got %v", err)
	}
}

func TestEntriesAreCopied(t *testing.T) {
	entries := []Entry{{"a", 1}}
	tab, err := New(entries)
	if err != nil {
		t.Fatal(err)
	}
	entries[0].Addr = 2
	if got := tab.Entry(0).Addr; got != 1 {
		t.Errorf("map changed with caller's slice: Addr = %d", got)
	}
}
