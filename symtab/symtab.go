// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symtab implements the symbol map: the fixed, ordered table of
// runtime helper routines an AOT module may call, and where each one
// lives.
//
// The position of a name in the map is significant. Module relocations
// refer to helpers by index, and index i is also the i'th slot of the
// procedure linkage table.
package symtab

import (
	"fmt"
	"sort"
)

// An Entry names one helper routine and its resident address.
type Entry struct {
	Name string
	Addr uint64
}

// Map is an immutable, ordered symbol map. It is safe for concurrent
// use.
type Map struct {
	// entries is the original entry slice, in index order.
	entries []Entry

	// name indexes entries by name.
	name map[string]int

	// addr holds the indexes of entries ordered by address and, for
	// equal addresses, by index.
	addr []int
}

// New creates a Map from entries. The Map keeps its own copy of entries.
// It is an error for two entries to share a name.
func New(entries []Entry) (*Map, error) {
	m := &Map{
		entries: append([]Entry(nil), entries...),
		name:    make(map[string]int, len(entries)),
		addr:    make([]int, len(entries)),
	}
	for i, e := range m.entries {
		if e.Name == "" {
			return nil, fmt.Errorf("symbol %d has no name", i)
		}
		if j, ok := m.name[e.Name]; ok {
			return nil, fmt.Errorf("symbol %q appears at both index %d and %d", e.Name, j, i)
		}
		m.name[e.Name] = i
		m.addr[i] = i
	}
	sort.SliceStable(m.addr, func(i, j int) bool {
		return m.entries[m.addr[i]].Addr < m.entries[m.addr[j]].Addr
	})
	return m, nil
}

// A Resolver returns the resident address of the named helper.
type Resolver func(name string) (addr uint64, ok bool)

// Addrs returns a Resolver that looks names up in addrs.
func Addrs(addrs map[string]uint64) Resolver {
	return func(name string) (uint64, bool) {
		a, ok := addrs[name]
		return a, ok
	}
}

// Bind builds a Map with one entry per name, in order, taking each
// address from resolve. Every name must resolve.
func Bind(names []string, resolve Resolver) (*Map, error) {
	entries := make([]Entry, len(names))
	var missing []string
	for i, name := range names {
		addr, ok := resolve(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		entries[i] = Entry{name, addr}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unresolved symbols: %q", missing)
	}
	return New(entries)
}

// Len returns the number of entries in m.
func (m *Map) Len() int {
	return len(m.entries)
}

// Entry returns the i'th entry. It panics if i is out of range.
func (m *Map) Entry(i int) Entry {
	return m.entries[i]
}

// Entries returns all entries in index order. The caller must not
// modify the returned slice.
func (m *Map) Entries() []Entry {
	return m.entries
}

// Name returns the index of the entry with the given name.
func (m *Map) Name(name string) (int, bool) {
	i, ok := m.name[name]
	return i, ok
}

// Addr returns the index of the entry resident at addr. If several
// entries share addr, it returns the one with the lowest index.
func (m *Map) Addr(addr uint64) (int, bool) {
	i := sort.Search(len(m.addr), func(i int) bool {
		return m.entries[m.addr[i]].Addr >= addr
	})
	if i == len(m.addr) || m.entries[m.addr[i]].Addr != addr {
		return -1, false
	}
	return m.addr[i], true
}
