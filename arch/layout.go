// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import (
	"encoding/binary"
	"fmt"
)

// Layout describes the data layout (byte order and word size) of an
// architecture. Its methods read and write fixed-width fields in place,
// which is how relocations decode and re-encode instruction words.
type Layout struct {
	// bigEndian selects the byte order. The concrete binary order
	// types are used directly so accesses inline.
	bigEndian bool
	wordSize  uint8
}

// NewLayout returns a new Layout with the given byte order and word size.
//
// wordSize must be 1, 2, 4, or 8.
func NewLayout(order binary.ByteOrder, wordSize int) Layout {
	var l Layout
	switch order {
	case binary.LittleEndian:
	case binary.BigEndian:
		l.bigEndian = true
	default:
		panic(fmt.Errorf("unknown byte order %v", order))
	}
	switch wordSize {
	case 1, 2, 4, 8:
	default:
		panic(fmt.Errorf("bad word size %d", wordSize))
	}
	l.wordSize = uint8(wordSize)
	return l
}

// Order returns the byte order of l.
func (l Layout) Order() binary.ByteOrder {
	if l.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// WordSize returns the size in bytes of an address on l.
func (l Layout) WordSize() int {
	return int(l.wordSize)
}

func (l Layout) Uint16(b []byte) uint16 {
	if l.bigEndian {
		return binary.BigEndian.Uint16(b)
	}
	return binary.LittleEndian.Uint16(b)
}

func (l Layout) Uint32(b []byte) uint32 {
	if l.bigEndian {
		return binary.BigEndian.Uint32(b)
	}
	return binary.LittleEndian.Uint32(b)
}

func (l Layout) Uint64(b []byte) uint64 {
	if l.bigEndian {
		return binary.BigEndian.Uint64(b)
	}
	return binary.LittleEndian.Uint64(b)
}

func (l Layout) PutUint16(b []byte, v uint16) {
	if l.bigEndian {
		binary.BigEndian.PutUint16(b, v)
		return
	}
	binary.LittleEndian.PutUint16(b, v)
}

func (l Layout) PutUint32(b []byte, v uint32) {
	if l.bigEndian {
		binary.BigEndian.PutUint32(b, v)
		return
	}
	binary.LittleEndian.PutUint32(b, v)
}

func (l Layout) PutUint64(b []byte, v uint64) {
	if l.bigEndian {
		binary.BigEndian.PutUint64(b, v)
		return
	}
	binary.LittleEndian.PutUint64(b, v)
}
