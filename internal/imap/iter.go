// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imap

// An Iter walks the intervals of an Imap in address order.
type Iter[V any] struct {
	n *avlNode[V]
}

// Iter returns an iterator positioned on the interval containing addr,
// or on the lowest interval above addr.
func (m *Imap[V]) Iter(addr uint64) Iter[V] {
	return Iter[V]{m.tree.search(func(n *avlNode[V]) bool {
		return addr < n.high
	})}
}

// Valid reports whether the iterator is positioned on an interval.
func (i *Iter[V]) Valid() bool {
	return i.n != nil
}

func (i *Iter[V]) Key() Interval {
	if i.n == nil {
		panic("imap: iterator not valid")
	}
	return i.n.interval()
}

func (i *Iter[V]) Value() V {
	if i.n == nil {
		panic("imap: iterator not valid")
	}
	return i.n.value
}

func (i *Iter[V]) Next() {
	if i.n == nil {
		panic("imap: iterator past end")
	}
	i.n = i.n.next()
}
