// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm

import (
	"debug/elf"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

var thumbRelocs = map[elf.R_ARM]bool{
	elf.R_ARM_ABS32:           false,
	elf.R_ARM_REL32:           false,
	R_ARM_THM_CALL:            true,
	elf.R_ARM_THM_JUMP24:      true,
	elf.R_ARM_THM_MOVW_ABS_NC: true,
	elf.R_ARM_THM_MOVT_ABS:    true,
}

// T32 32-bit instructions are two little-endian halfwords, hi first.
// Branch fields are
//
//	hi: 11110 S imm10
//	lo: 1 1 J1 x J2 imm11
//
// and MOVW/MOVT fields are
//
//	hi: 11110 i 10x1x0 imm4
//	lo: 0 imm3 Rd imm8
const (
	hiS     = 1 << 10
	hiImm10 = 0x3ff
	loJ1    = 1 << 13
	loJ2    = 1 << 11
	loImm11 = 0x7ff

	hiI    = 1 << 10
	hiImm4 = 0xf
	loImm3 = 0x7 << 12
	loImm8 = 0xff
)

// branchOffset decodes the byte offset of a BL or B.W.
func branchOffset(hi, lo uint16) int64 {
	s := uint64(hi&hiS) >> 10
	j1 := uint64(lo&loJ1) >> 13
	j2 := uint64(lo&loJ2) >> 11
	i1 := ^(j1 ^ s) & 1
	i2 := ^(j2 ^ s) & 1
	v := s<<24 | i1<<23 | i2<<22 | uint64(hi&hiImm10)<<12 | uint64(lo&loImm11)<<1
	return reloc.SignExtend(v, 25)
}

// encodeBranch encodes offset x into a BL or B.W.
func encodeBranch(hi, lo uint16, x int64) (uint16, uint16) {
	v := uint64(x)
	s := uint16(v>>24) & 1
	i1 := uint16(v>>23) & 1
	i2 := uint16(v>>22) & 1
	j1 := ^(i1 ^ s) & 1
	j2 := ^(i2 ^ s) & 1
	hi = hi&^(hiS|hiImm10) | s<<10 | uint16(v>>12)&hiImm10
	lo = lo&^(loJ1|loJ2|loImm11) | j1<<13 | j2<<11 | uint16(v>>1)&loImm11
	return hi, lo
}

func movImm(hi, lo uint16) uint16 {
	return (hi&hiImm4)<<12 | (hi&hiI)<<1 | (lo&loImm3)>>4 | lo&loImm8
}

func encodeMov(hi, lo, imm uint16) (uint16, uint16) {
	hi = hi&^(hiI|hiImm4) | imm>>12&hiImm4 | imm>>1&hiI
	lo = lo&^(loImm3|loImm8) | imm<<4&loImm3 | imm&loImm8
	return hi, lo
}

type thumbBackend struct{}

func (thumbBackend) Arch() *arch.Arch { return arch.Thumb }

func (thumbBackend) Reloc(t reloc.Type) (reloc.Info, bool) {
	inst, ok := thumbRelocs[elf.R_ARM(t)]
	if !ok {
		return reloc.Info{}, false
	}
	return reloc.Info{Name: relName(elf.R_ARM(t)), Width: 4, Inst: inst}, true
}

func (thumbBackend) Apply(s *reloc.Site) error {
	if ok, err := applyData(s); ok {
		return err
	}
	hi, lo := s.Uint16(0), s.Uint16(2)
	switch elf.R_ARM(s.Type) {
	case R_ARM_THM_CALL, elf.R_ARM_THM_JUMP24:
		s.Addend += branchOffset(hi, lo)
		// The low bit of a Thumb function address is the
		// interworking bit, not part of the target.
		s.S &^= 1
		x := s.PCRel()
		if err := s.CheckSigned(x, 25); err != nil {
			return err
		}
		if err := s.CheckAlign(x, int64(arch.Thumb.InstAlign)); err != nil {
			return err
		}
		hi, lo = encodeBranch(hi, lo, x)

	case elf.R_ARM_THM_MOVW_ABS_NC, elf.R_ARM_THM_MOVT_ABS:
		s.Addend += reloc.SignExtend(uint64(movImm(hi, lo)), 16)
		x := uint32(s.Abs())
		if elf.R_ARM(s.Type) == elf.R_ARM_THM_MOVT_ABS {
			x >>= 16
		}
		hi, lo = encodeMov(hi, lo, uint16(x))

	default:
		return s.Errorf(reloc.UnsupportedType, "")
	}
	s.PutUint16(0, hi)
	s.PutUint16(2, lo)
	return nil
}

func (thumbBackend) SymbolNames(f reloc.Features) []string { return symbolNames(f) }

// A T32 PLT slot is
//
//	ldr.w pc, [pc, #0]
//	.word addr
//
// The load reads from Align(pc, 4), so the slot must be 4-byte aligned
// for the literal to be its own address word.
const (
	insnLdrWPCHi = 0xf8df
	insnLdrWPCLo = 0xf000
)

func (thumbBackend) PLTItemSize() int { return pltSize }

func (thumbBackend) PLTAlign() int { return 4 }

func (thumbBackend) WritePLTItem(slot []byte, addr uint64) {
	l := arch.Thumb.Layout
	l.PutUint16(slot[0:], insnLdrWPCHi)
	l.PutUint16(slot[2:], insnLdrWPCLo)
	putPLTAddr(slot, addr)
}

func (thumbBackend) NormalizeTarget(triple string) (string, bool) {
	return targets.thumb.Normalize(triple)
}
