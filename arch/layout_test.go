// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arch

import (
	"bytes"
	"encoding/binary"
	"testing"
)

var orders = []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}

func TestLayoutGet(t *testing.T) {
	data := []byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb, 0xfa, 0xf9, 0xf8}
	for _, order := range orders {
		l := NewLayout(order, 8)
		if l.Order() != order {
			t.Errorf("Order() = %v, want %v", l.Order(), order)
		}
		if got, want := l.Uint16(data), order.Uint16(data); got != want {
			t.Errorf("%v Uint16: want %#x, got %#x", order, want, got)
		}
		if got, want := l.Uint32(data), order.Uint32(data); got != want {
			t.Errorf("%v Uint32: want %#x, got %#x", order, want, got)
		}
		if got, want := l.Uint64(data), order.Uint64(data); got != want {
			t.Errorf("%v Uint64: want %#x, got %#x", order, want, got)
		}
	}
}

func TestLayoutPut(t *testing.T) {
	for _, order := range orders {
		l := NewLayout(order, 4)
		got, want := make([]byte, 10), make([]byte, 10)

		l.PutUint16(got[1:], 0xfeff)
		order.PutUint16(want[1:], 0xfeff)
		l.PutUint32(got[3:], 0xfcfdfeff)
		order.PutUint32(want[3:], 0xfcfdfeff)
		if !bytes.Equal(got, want) {
			t.Errorf("%v: want % x, got % x", order, want, got)
		}

		// Fields are written in place; neighbors are untouched.
		l.PutUint64(got[1:], 0xf8f9fafbfcfdfeff)
		if got[0] != 0 || got[9] != 0 {
			t.Errorf("%v PutUint64 wrote outside its field: % x", order, got)
		}
		if v := l.Uint64(got[1:]); v != 0xf8f9fafbfcfdfeff {
			t.Errorf("%v Uint64 after PutUint64: got %#x", order, v)
		}
	}
}

func TestNewLayout(t *testing.T) {
	for _, size := range []int{1, 2, 4, 8} {
		if got := NewLayout(binary.LittleEndian, size).WordSize(); got != size {
			t.Errorf("WordSize() = %d, want %d", got, size)
		}
	}
	for _, size := range []int{0, 3, 16} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewLayout with word size %d did not panic", size)
				}
			}()
			NewLayout(binary.LittleEndian, size)
		}()
	}
}

func TestArch(t *testing.T) {
	for _, test := range []struct {
		a        *Arch
		wordSize int
	}{
		{AMD64, 8}, {I386, 4}, {ARM64, 8}, {ARM, 4},
		{Thumb, 4}, {RISCV64, 8}, {Loong64, 8},
	} {
		a := test.a
		if a.Layout.WordSize() != test.wordSize || a.Layout.Order() != binary.LittleEndian {
			t.Errorf("%s: layout %v/%d, want little endian/%d", a, a.Layout.Order(), a.Layout.WordSize(), test.wordSize)
		}
		if got := a.Page(0x12345); got != 0x12000 {
			t.Errorf("%s: Page(0x12345) = %#x, want 0x12000", a, got)
		}
		if a.InstAlign&(a.InstAlign-1) != 0 {
			t.Errorf("%s: instruction alignment %d is not a power of two", a, a.InstAlign)
		}
	}
	if s := (*Arch)(nil).String(); s != "<nil>" {
		t.Errorf("nil Arch prints as %q", s)
	}
}

func BenchmarkPutUint32(b *testing.B) {
	for _, order := range orders {
		l := NewLayout(order, 4)
		b.Run(order.String(), func(b *testing.B) {
			data := make([]byte, 16<<10)
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				for off := 0; off < len(data); off += 4 {
					l.PutUint32(data[off:], uint32(off))
				}
			}
		})
	}
}
