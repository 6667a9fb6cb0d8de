// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package riscv implements relocation for 64-bit RISC-V code.
//
// Relocated fields are overwritten; the addend comes from the record.
package riscv

import (
	"debug/elf"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

// RV64 relocates RV64GC code.
var RV64 reloc.Backend = backend{}

var relocs = map[elf.R_RISCV]reloc.Info{
	elf.R_RISCV_32:           {Width: 4},
	elf.R_RISCV_64:           {Width: 8},
	elf.R_RISCV_32_PCREL:     {Width: 4},
	elf.R_RISCV_BRANCH:       {Width: 4, Inst: true},
	elf.R_RISCV_JAL:          {Width: 4, Inst: true},
	elf.R_RISCV_CALL:         {Width: 8, Inst: true},
	elf.R_RISCV_CALL_PLT:     {Width: 8, Inst: true},
	elf.R_RISCV_PCREL_HI20:   {Width: 4, Inst: true},
	elf.R_RISCV_PCREL_LO12_I: {Width: 4, Inst: true},
	elf.R_RISCV_PCREL_LO12_S: {Width: 4, Inst: true},
	elf.R_RISCV_HI20:         {Width: 4, Inst: true},
	elf.R_RISCV_LO12_I:       {Width: 4, Inst: true},
	elf.R_RISCV_LO12_S:       {Width: 4, Inst: true},
	elf.R_RISCV_RVC_BRANCH:   {Width: 2, Inst: true},
	elf.R_RISCV_RVC_JUMP:     {Width: 2, Inst: true},
}

// Immediate field masks by instruction format.
const (
	maskI  = 0xfff00000
	maskS  = 0xfe000f80
	maskB  = 0xfe000f80
	maskU  = 0xfffff000
	maskJ  = 0xfffff000
	maskCB = 0x1c7c
	maskCJ = 0x1ffc
)

func encodeI(insn uint32, v int64) uint32 {
	return insn&^maskI | uint32(v)<<20
}

func encodeS(insn uint32, v int64) uint32 {
	u := uint32(v)
	return insn&^maskS | (u>>5&0x7f)<<25 | (u&0x1f)<<7
}

func encodeB(insn uint32, v int64) uint32 {
	u := uint32(v)
	return insn&^maskB | (u>>12&1)<<31 | (u>>5&0x3f)<<25 | (u>>1&0xf)<<8 | (u>>11&1)<<7
}

func encodeU(insn uint32, v int64) uint32 {
	return insn&^maskU | uint32(v)<<12
}

func encodeJ(insn uint32, v int64) uint32 {
	u := uint32(v)
	return insn&^maskJ | (u>>20&1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&1)<<20 | (u>>12&0xff)<<12
}

func encodeCB(insn uint16, v int64) uint16 {
	u := uint16(v)
	return insn&^maskCB | (u>>8&1)<<12 | (u>>3&3)<<10 | (u>>6&3)<<5 | (u>>1&3)<<3 | (u>>5&1)<<2
}

func encodeCJ(insn uint16, v int64) uint16 {
	u := uint16(v)
	return insn&^maskCJ | (u>>11&1)<<12 | (u>>4&1)<<11 | (u>>8&3)<<9 | (u>>10&1)<<8 |
		(u>>6&1)<<7 | (u>>7&1)<<6 | (u>>1&7)<<3 | (u>>5&1)<<2
}

// hiLo splits v into the upper 20 bits and sign-extended lower 12 bits
// used by an auipc or lui and the instruction that follows it.
func hiLo(v int64) (hi, lo int64) {
	hi = (v + 0x800) >> 12
	lo = v - hi<<12
	return hi, lo
}

// checkHi20 reports an error if v is not reachable by a hi20/lo12 pair.
func checkHi20(s *reloc.Site, v int64) error {
	return s.CheckRange(v, -1<<31-0x800, 1<<31-0x800-1)
}

// checkBranch checks that a PC-relative branch offset fits in bits and
// meets the instruction alignment.
func checkBranch(s *reloc.Site, v int64, bits uint) error {
	if err := s.CheckSigned(v, bits); err != nil {
		return err
	}
	return s.CheckAlign(v, int64(arch.RISCV64.InstAlign))
}

var targets = reloc.TargetNames{
	Default:  "riscv64",
	Families: []string{"riscv"},
	Variants: []string{"riscv64"},
}

type backend struct{}

func (backend) Arch() *arch.Arch { return arch.RISCV64 }

func (backend) Reloc(t reloc.Type) (reloc.Info, bool) {
	info, ok := relocs[elf.R_RISCV(t)]
	info.Name = elf.R_RISCV(t).String()
	return info, ok
}

func (backend) Apply(s *reloc.Site) error {
	switch elf.R_RISCV(s.Type) {
	case elf.R_RISCV_32:
		v := s.Abs()
		if err := s.CheckUnsigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))

	case elf.R_RISCV_64:
		s.PutUint64(0, uint64(s.Abs()))

	case elf.R_RISCV_32_PCREL:
		v := s.PCRel()
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))

	case elf.R_RISCV_BRANCH:
		v := s.PCRel()
		if err := checkBranch(s, v, 13); err != nil {
			return err
		}
		s.PutUint32(0, encodeB(s.Uint32(0), v))

	case elf.R_RISCV_JAL:
		v := s.PCRel()
		if err := checkBranch(s, v, 21); err != nil {
			return err
		}
		s.PutUint32(0, encodeJ(s.Uint32(0), v))

	case elf.R_RISCV_CALL, elf.R_RISCV_CALL_PLT:
		v := s.PCRel()
		if err := checkHi20(s, v); err != nil {
			return err
		}
		if err := s.CheckAlign(v, int64(arch.RISCV64.InstAlign)); err != nil {
			return err
		}
		hi, lo := hiLo(v)
		s.PutUint32(0, encodeU(s.Uint32(0), hi))
		s.PutUint32(4, encodeI(s.Uint32(4), lo))

	case elf.R_RISCV_PCREL_HI20:
		v := s.PCRel()
		if err := checkHi20(s, v); err != nil {
			return err
		}
		hi, _ := hiLo(v)
		s.PutUint32(0, encodeU(s.Uint32(0), hi))

	case elf.R_RISCV_PCREL_LO12_I, elf.R_RISCV_PCREL_LO12_S:
		// The paired auipc immediately precedes this instruction.
		v := s.PCRel() + 4
		_, lo := hiLo(v)
		if elf.R_RISCV(s.Type) == elf.R_RISCV_PCREL_LO12_I {
			s.PutUint32(0, encodeI(s.Uint32(0), lo))
		} else {
			s.PutUint32(0, encodeS(s.Uint32(0), lo))
		}

	case elf.R_RISCV_HI20:
		v := s.Abs()
		if err := checkHi20(s, v); err != nil {
			return err
		}
		hi, _ := hiLo(v)
		s.PutUint32(0, encodeU(s.Uint32(0), hi))

	case elf.R_RISCV_LO12_I:
		_, lo := hiLo(s.Abs())
		s.PutUint32(0, encodeI(s.Uint32(0), lo))

	case elf.R_RISCV_LO12_S:
		_, lo := hiLo(s.Abs())
		s.PutUint32(0, encodeS(s.Uint32(0), lo))

	case elf.R_RISCV_RVC_BRANCH:
		v := s.PCRel()
		if err := checkBranch(s, v, 9); err != nil {
			return err
		}
		s.PutUint16(0, encodeCB(s.Uint16(0), v))

	case elf.R_RISCV_RVC_JUMP:
		v := s.PCRel()
		if err := checkBranch(s, v, 12); err != nil {
			return err
		}
		s.PutUint16(0, encodeCJ(s.Uint16(0), v))

	default:
		return s.Errorf(reloc.UnsupportedType, "")
	}
	return nil
}

func (backend) SymbolNames(f reloc.Features) []string {
	return reloc.SymbolNames(f)
}

// A RISC-V PLT slot is
//
//	auipc t1, 0
//	ld    t1, 16(t1)
//	jr    t1
//	nop
//	.quad addr
const (
	pltSize    = 24
	pltAddrOff = 16
)

var pltInsns = [...]uint32{
	0x00000317, // auipc t1, 0
	0x01033303, // ld t1, 16(t1)
	0x00030067, // jalr zero, 0(t1)
	0x00000013, // addi zero, zero, 0
}

func (backend) PLTItemSize() int { return pltSize }

func (backend) WritePLTItem(slot []byte, addr uint64) {
	l := arch.RISCV64.Layout
	for i, insn := range pltInsns {
		l.PutUint32(slot[4*i:], insn)
	}
	l.PutUint64(slot[pltAddrOff:], addr)
}

func (backend) NormalizeTarget(triple string) (string, bool) {
	return targets.Normalize(triple)
}
