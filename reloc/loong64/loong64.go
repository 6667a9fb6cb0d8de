// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loong64 implements relocation for LoongArch64 code.
//
// Relocated fields are overwritten; the addend comes from the record.
package loong64

import (
	"debug/elf"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

// LA64 relocates LoongArch64 code.
var LA64 reloc.Backend = backend{}

// R_LARCH_CALL36 relocates a pcaddu18i and jirl pair. It is missing from
// older debug/elf.
const R_LARCH_CALL36 elf.R_LARCH = 110

func relName(t elf.R_LARCH) string {
	if t == R_LARCH_CALL36 {
		return "R_LARCH_CALL36"
	}
	return t.String()
}

var relocs = map[elf.R_LARCH]reloc.Info{
	elf.R_LARCH_32:         {Width: 4},
	elf.R_LARCH_64:         {Width: 8},
	elf.R_LARCH_32_PCREL:   {Width: 4},
	elf.R_LARCH_B16:        {Width: 4, Inst: true},
	elf.R_LARCH_B21:        {Width: 4, Inst: true},
	elf.R_LARCH_B26:        {Width: 4, Inst: true},
	elf.R_LARCH_ABS_HI20:   {Width: 4, Inst: true},
	elf.R_LARCH_ABS_LO12:   {Width: 4, Inst: true},
	elf.R_LARCH_PCALA_HI20: {Width: 4, Inst: true},
	elf.R_LARCH_PCALA_LO12: {Width: 4, Inst: true},
	R_LARCH_CALL36:         {Width: 8, Inst: true},
}

// Instruction fields.
const (
	offs16Shift = 10
	offs16Mask  = 0xffff << offs16Shift // offs[15:0] of B16, B21, B26, jirl
	offs21Mask  = 0x1f                  // offs[20:16] of B21
	offs26Mask  = 0x3ff                 // offs[25:16] of B26
	si20Shift   = 5
	si20Mask    = 0xfffff << si20Shift // lu12i.w, pcalau12i, pcaddu18i
	si12Shift   = 10
	si12Mask    = 0xfff << si12Shift // ori, addi.d, ld.d
)

func encodeBranch(insn uint32, t elf.R_LARCH, v int64) uint32 {
	offs := uint32(v >> 2)
	insn = insn&^offs16Mask | offs&0xffff<<offs16Shift
	switch t {
	case elf.R_LARCH_B21:
		insn = insn&^offs21Mask | offs>>16&offs21Mask
	case elf.R_LARCH_B26:
		insn = insn&^offs26Mask | offs>>16&offs26Mask
	}
	return insn
}

func encodeSI20(insn uint32, v int64) uint32 {
	return insn&^si20Mask | uint32(v)&0xfffff<<si20Shift
}

func encodeSI12(insn uint32, v int64) uint32 {
	return insn&^si12Mask | uint32(v)&0xfff<<si12Shift
}

// branchBits returns the width of a branch's byte offset.
func branchBits(t elf.R_LARCH) uint {
	switch t {
	case elf.R_LARCH_B16:
		return 18
	case elf.R_LARCH_B21:
		return 23
	}
	return 28
}

var targets = reloc.TargetNames{
	Default:  "loongarch64",
	Families: []string{"loongarch", "loong64"},
	Variants: []string{"loongarch64"},
}

type backend struct{}

func (backend) Arch() *arch.Arch { return arch.Loong64 }

func (backend) Reloc(t reloc.Type) (reloc.Info, bool) {
	info, ok := relocs[elf.R_LARCH(t)]
	info.Name = relName(elf.R_LARCH(t))
	return info, ok
}

func (backend) Apply(s *reloc.Site) error {
	t := elf.R_LARCH(s.Type)
	switch t {
	case elf.R_LARCH_32:
		v := s.Abs()
		if err := s.CheckWord(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))

	case elf.R_LARCH_64:
		s.PutUint64(0, uint64(s.Abs()))

	case elf.R_LARCH_32_PCREL:
		v := s.PCRel()
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))

	case elf.R_LARCH_B16, elf.R_LARCH_B21, elf.R_LARCH_B26:
		v := s.PCRel()
		if err := s.CheckSigned(v, branchBits(t)); err != nil {
			return err
		}
		if err := s.CheckAlign(v, int64(arch.Loong64.InstAlign)); err != nil {
			return err
		}
		s.PutUint32(0, encodeBranch(s.Uint32(0), t, v))

	case elf.R_LARCH_ABS_HI20:
		v := s.Abs()
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, encodeSI20(s.Uint32(0), v>>12))

	case elf.R_LARCH_ABS_LO12:
		s.PutUint32(0, encodeSI12(s.Uint32(0), s.Abs()))

	case elf.R_LARCH_PCALA_HI20:
		// The paired instruction sign-extends its low 12 bits, so
		// round the high part to the nearest page.
		page := arch.Loong64.Page
		v := int64(page(uint64(s.Abs()+0x800))) - int64(page(s.PC))
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, encodeSI20(s.Uint32(0), v>>12))

	case elf.R_LARCH_PCALA_LO12:
		s.PutUint32(0, encodeSI12(s.Uint32(0), s.Abs()))

	case R_LARCH_CALL36:
		v := s.PCRel()
		if err := s.CheckRange(v, -1<<37-0x20000, 1<<37-0x20000-1); err != nil {
			return err
		}
		if err := s.CheckAlign(v, int64(arch.Loong64.InstAlign)); err != nil {
			return err
		}
		hi := (v + 0x20000) >> 18
		lo := v - hi<<18
		s.PutUint32(0, encodeSI20(s.Uint32(0), hi))
		jirl := s.Uint32(4)
		s.PutUint32(4, jirl&^offs16Mask|uint32(lo>>2)&0xffff<<offs16Shift)

	default:
		return s.Errorf(reloc.UnsupportedType, "")
	}
	return nil
}

func (backend) SymbolNames(f reloc.Features) []string {
	return reloc.SymbolNames(f)
}

// A LoongArch PLT slot is
//
//	pcaddu12i $t8, 0
//	ld.d      $t8, $t8, 16
//	jirl      $zero, $t8, 0
//	nop
//	.dword    addr
const (
	pltSize    = 24
	pltAddrOff = 16
)

var pltInsns = [...]uint32{
	0x1c000014, // pcaddu12i $t8, 0
	0x28c04294, // ld.d $t8, $t8, 16
	0x4c000280, // jirl $zero, $t8, 0
	0x03400000, // andi $zero, $zero, 0
}

func (backend) PLTItemSize() int { return pltSize }

func (backend) WritePLTItem(slot []byte, addr uint64) {
	l := arch.Loong64.Layout
	for i, insn := range pltInsns {
		l.PutUint32(slot[4*i:], insn)
	}
	l.PutUint64(slot[pltAddrOff:], addr)
}

func (backend) NormalizeTarget(triple string) (string, bool) {
	return targets.Normalize(triple)
}
