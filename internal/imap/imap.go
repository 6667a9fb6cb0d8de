// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imap implements a map from disjoint address intervals to
// values, used to lay out the sections of a code region.
package imap

// An Imap maps non-overlapping, non-empty address intervals to values of
// type V. The zero Imap is empty and ready to use.
type Imap[V any] struct {
	tree avlTree[V]
}

// Insert maps key to value. If key is empty or overlaps an interval
// already in m, Insert leaves m unchanged and reports false; in the
// overlapping case it also returns the lowest interval key overlaps and
// that interval's value.
func (m *Imap[V]) Insert(key Interval, value V) (conflict Interval, old V, ok bool) {
	if key.Empty() {
		return Interval{}, old, false
	}
	if conflict, old, overlap := m.Overlaps(key); overlap {
		return conflict, old, false
	}
	m.tree.insert(key.Low, key.High, value)
	return Interval{}, old, true
}

// Find returns the interval containing addr and its value. If no
// interval contains addr, it returns Interval{} and the zero V.
func (m *Imap[V]) Find(addr uint64) (key Interval, value V) {
	n := m.tree.search(func(n *avlNode[V]) bool {
		return addr < n.high
	})
	if n != nil && n.low <= addr {
		return n.interval(), n.value
	}
	return Interval{}, value
}

// Overlaps reports whether any mapped interval intersects key, and if so
// returns the lowest such interval and its value.
func (m *Imap[V]) Overlaps(key Interval) (Interval, V, bool) {
	var zero V
	if key.Empty() {
		return Interval{}, zero, false
	}
	it := m.Iter(key.Low)
	if it.Valid() && it.Key().Low < key.High {
		return it.Key(), it.Value(), true
	}
	return Interval{}, zero, false
}

// Len returns the number of intervals in m.
func (m *Imap[V]) Len() int {
	return m.tree.size
}
