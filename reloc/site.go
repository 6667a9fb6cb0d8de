// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"fmt"
	"math"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
)

// A View is the writable bytes of one section together with the address
// at which Data[0] will execute. All writes made while relocating the
// section stay inside Data.
type View struct {
	Base uint64
	Data []byte
}

// Size returns the size of the section.
func (v View) Size() uint32 {
	return uint32(len(v.Data))
}

// window returns the width bytes at off, or an OffsetOutOfBounds error.
func (v View) window(r *Record, info Info) ([]byte, error) {
	size := uint64(len(v.Data))
	w := uint64(info.Width)
	if r.Offset >= size || w > size-r.Offset {
		return nil, &Error{
			Kind:   OffsetOutOfBounds,
			Type:   r.Type,
			Name:   info.Name,
			Offset: r.Offset,
			Detail: fmt.Sprintf("%d-byte site does not fit in %d-byte section", w, size),
		}
	}
	return v.Data[r.Offset : r.Offset+w : r.Offset+w], nil
}

// A Site is a relocation being applied. Backends decode the existing
// instruction bits from Bytes, compute the relocated value, and encode
// it back into Bytes. Bytes is a private copy of the relocation site;
// the Linker stores it back to the section only if the backend succeeds.
type Site struct {
	Record
	Info

	// PC is the address of the relocation site (P).
	PC uint64
	// S is the resolved target address. For External records this is
	// the address of the symbol's PLT slot, unless the backend reaches
	// helpers directly.
	S uint64
	// ViaPLT is set if S is a PLT slot.
	ViaPLT bool

	Layout arch.Layout
	Bytes  []byte
}

// Abs returns S + A.
func (s *Site) Abs() int64 {
	return int64(s.S) + s.Addend
}

// PCRel returns S + A - P.
func (s *Site) PCRel() int64 {
	return int64(s.S) + s.Addend - int64(s.PC)
}

func (s *Site) Uint16(off int) uint16        { return s.Layout.Uint16(s.Bytes[off:]) }
func (s *Site) Uint32(off int) uint32        { return s.Layout.Uint32(s.Bytes[off:]) }
func (s *Site) Uint64(off int) uint64        { return s.Layout.Uint64(s.Bytes[off:]) }
func (s *Site) PutUint16(off int, v uint16) { s.Layout.PutUint16(s.Bytes[off:], v) }
func (s *Site) PutUint32(off int, v uint32) { s.Layout.PutUint32(s.Bytes[off:], v) }
func (s *Site) PutUint64(off int, v uint64) { s.Layout.PutUint64(s.Bytes[off:], v) }

func (s *Site) newError(k Kind) *Error {
	return &Error{Kind: k, Type: s.Type, Name: s.Name, Offset: s.Offset}
}

// Errorf returns an Error of kind k for this site.
func (s *Site) Errorf(k Kind, format string, args ...interface{}) error {
	e := s.newError(k)
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// CheckRange returns an OutOfRange error if v is not in [min, max].
func (s *Site) CheckRange(v, min, max int64) error {
	if v < min || v > max {
		e := s.newError(OutOfRange)
		e.Value, e.Min, e.Max = v, min, max
		return e
	}
	return nil
}

// CheckSigned returns an OutOfRange error if v does not fit in a
// bits-wide two's complement field.
func (s *Site) CheckSigned(v int64, bits uint) error {
	if bits >= 64 {
		return nil
	}
	return s.CheckRange(v, -1<<(bits-1), 1<<(bits-1)-1)
}

// CheckUnsigned returns an OutOfRange error if v does not fit in a
// bits-wide zero-extended field.
func (s *Site) CheckUnsigned(v int64, bits uint) error {
	if bits >= 63 {
		return s.CheckRange(v, 0, math.MaxInt64)
	}
	return s.CheckRange(v, 0, 1<<bits-1)
}

// CheckWord returns an OutOfRange error if v does not round-trip through
// a bits-wide field under either sign or zero extension.
func (s *Site) CheckWord(v int64, bits uint) error {
	return s.CheckRange(v, -1<<(bits-1), 1<<bits-1)
}

// CheckAlign returns a Misaligned error if v is not a multiple of align,
// which must be a power of two.
func (s *Site) CheckAlign(v, align int64) error {
	if v&(align-1) != 0 {
		e := s.newError(Misaligned)
		e.Value, e.Align = v, align
		return e
	}
	return nil
}

// NoPositivePLTAddend returns an UnsupportedAddend error if the site goes
// through a PLT slot with a positive addend. A PLT slot is a fixed
// template that cannot be entered part way through.
func (s *Site) NoPositivePLTAddend() error {
	if s.ViaPLT && s.Addend > 0 {
		return s.Errorf(UnsupportedAddend, "positive addend %d through PLT slot", s.Addend)
	}
	return nil
}

// SignExtend sign-extends the low bits bits of v.
func SignExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}
