// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imap

// avlTree is an insert-only AVL tree of intervals ordered by their low
// end. Callers keep the intervals disjoint, so the low end is a unique
// key.
type avlTree[V any] struct {
	root *avlNode[V]
	size int
}

type avlNode[V any] struct {
	low, high   uint64
	left, right *avlNode[V]
	parent      *avlNode[V]
	height      int

	value V
}

func (n *avlNode[V]) interval() Interval {
	return Interval{n.low, n.high}
}

// insert adds a node for [low, high) and returns it. There must be no
// node with the same low end.
func (t *avlTree[V]) insert(low, high uint64, value V) *avlNode[V] {
	var parent *avlNode[V]
	link := &t.root
	for n := t.root; n != nil; n = *link {
		parent = n
		if low < n.low {
			link = &n.left
		} else {
			link = &n.right
		}
	}
	n := &avlNode[V]{low: low, high: high, parent: parent, height: 1, value: value}
	*link = n
	t.size++
	t.rebalance(parent)
	return n
}

// search returns the lowest node for which pred is true. pred must be
// monotonic in the tree order: false for a prefix of the nodes and true
// for the rest.
func (t *avlTree[V]) search(pred func(n *avlNode[V]) bool) *avlNode[V] {
	var best *avlNode[V]
	for n := t.root; n != nil; {
		if pred(n) {
			best, n = n, n.left
		} else {
			n = n.right
		}
	}
	return best
}

// next returns the in-order successor of n, or nil.
func (n *avlNode[V]) next() *avlNode[V] {
	if n.right != nil {
		n = n.right
		for n.left != nil {
			n = n.left
		}
		return n
	}
	for n.parent != nil && n.parent.right == n {
		n = n.parent
	}
	return n.parent
}

// rebalance restores the AVL invariant on the path from n to the root.
func (t *avlTree[V]) rebalance(n *avlNode[V]) {
	for ; n != nil; n = n.parent {
		n.fixHeight()
		switch b := n.balance(); {
		case b > 1:
			if n.left.balance() < 0 {
				rotateLeft(&n.left)
			}
			rotateRight(t.link(n))
		case b < -1:
			if n.right.balance() > 0 {
				rotateRight(&n.right)
			}
			rotateLeft(t.link(n))
		}
	}
}

// link returns the pointer to n held by n's parent, or the root pointer.
func (t *avlTree[V]) link(n *avlNode[V]) **avlNode[V] {
	switch {
	case n.parent == nil:
		return &t.root
	case n.parent.left == n:
		return &n.parent.left
	}
	return &n.parent.right
}

func (n *avlNode[V]) h() int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *avlNode[V]) fixHeight() {
	n.height = 1 + max(n.left.h(), n.right.h())
}

func (n *avlNode[V]) balance() int {
	return n.left.h() - n.right.h()
}

func rotateLeft[V any](link **avlNode[V]) {
	n := *link
	r := n.right
	n.right, r.left = r.left, n
	if n.right != nil {
		n.right.parent = n
	}
	r.parent, n.parent = n.parent, r
	n.fixHeight()
	r.fixHeight()
	*link = r
}

func rotateRight[V any](link **avlNode[V]) {
	n := *link
	l := n.left
	n.left, l.right = l.right, n
	if n.left != nil {
		n.left.parent = n
	}
	l.parent, n.parent = n.parent, l
	n.fixHeight()
	l.fixHeight()
	*link = l
}
