// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arm implements relocation for 32-bit ARM code in both the A32
// (ARM) and T32 (Thumb) instruction sets.
//
// Relocations follow the REL convention: the initial contents of each
// relocated field are decoded and added to the record's addend. For
// branches this initial addend carries the PC bias of the instruction
// set (-8 for A32, -4 for T32).
package arm

import (
	"debug/elf"
	"fmt"
	"math"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

// ARM relocates A32 code.
var ARM reloc.Backend = armBackend{}

// Thumb relocates T32 code.
var Thumb reloc.Backend = thumbBackend{}

// R_ARM_THM_CALL is the ABI name of the Thumb BL relocation, which
// debug/elf calls R_ARM_THM_PC22.
const R_ARM_THM_CALL = elf.R_ARM_THM_PC22

func relName(t elf.R_ARM) string {
	if t == R_ARM_THM_CALL {
		return "R_ARM_THM_CALL"
	}
	return t.String()
}

// intrinsics are the run-time ABI routines ARM code calls for
// arithmetic the core does not implement.
var intrinsics = []string{
	"__aeabi_ldivmod",
	"__aeabi_uldivmod",
	"__aeabi_idiv",
	"__aeabi_uidiv",
	"__aeabi_idivmod",
	"__aeabi_uidivmod",
	"__aeabi_l2d",
	"__aeabi_l2f",
	"__aeabi_ul2d",
	"__aeabi_ul2f",
	"__aeabi_d2lz",
	"__aeabi_d2ulz",
	"__aeabi_f2lz",
	"__aeabi_f2ulz",
	"__aeabi_llsl",
	"__aeabi_llsr",
	"__aeabi_lasr",
}

func symbolNames(f reloc.Features) []string {
	return reloc.SymbolNames(f, intrinsics...)
}

// applyData applies the relocations shared by both instruction sets.
func applyData(s *reloc.Site) (bool, error) {
	var x int64
	switch elf.R_ARM(s.Type) {
	default:
		return false, nil
	case elf.R_ARM_ABS32:
		s.Addend += int64(int32(s.Uint32(0)))
		x = s.Abs()
	case elf.R_ARM_REL32:
		s.Addend += int64(int32(s.Uint32(0)))
		x = s.PCRel()
	}
	if err := s.CheckWord(x, 32); err != nil {
		return true, err
	}
	s.PutUint32(0, uint32(x))
	return true, nil
}

var targets = struct {
	arm, thumb reloc.TargetNames
}{
	arm: reloc.TargetNames{
		Default:  "armv4t",
		Families: []string{"arm"},
		Variants: []string{"armv"},
	},
	thumb: reloc.TargetNames{
		Default:  "thumbv4t",
		Families: []string{"thumb"},
		Variants: []string{"thumbv"},
	},
}

// A32 instruction fields.
const (
	imm24Mask = 0x00ffffff
	imm12Mask = 0x00000fff
	imm4Mask  = 0x000f0000
	prel31    = 0x7fffffff
)

var armRelocs = map[elf.R_ARM]bool{
	elf.R_ARM_ABS32:       false,
	elf.R_ARM_REL32:       false,
	elf.R_ARM_CALL:        true,
	elf.R_ARM_JUMP24:      true,
	elf.R_ARM_PREL31:      false,
	elf.R_ARM_MOVW_ABS_NC: true,
	elf.R_ARM_MOVT_ABS:    true,
}

type armBackend struct{}

func (armBackend) Arch() *arch.Arch { return arch.ARM }

func (armBackend) Reloc(t reloc.Type) (reloc.Info, bool) {
	inst, ok := armRelocs[elf.R_ARM(t)]
	if !ok {
		return reloc.Info{}, false
	}
	return reloc.Info{Name: relName(elf.R_ARM(t)), Width: 4, Inst: inst}, true
}

func (armBackend) Apply(s *reloc.Site) error {
	if ok, err := applyData(s); ok {
		return err
	}
	insn := s.Uint32(0)
	switch elf.R_ARM(s.Type) {
	case elf.R_ARM_CALL, elf.R_ARM_JUMP24:
		s.Addend += reloc.SignExtend(uint64(insn&imm24Mask)<<2, 26)
		x := s.PCRel()
		if err := s.CheckSigned(x, 26); err != nil {
			return err
		}
		if err := s.CheckAlign(x, int64(arch.ARM.InstAlign)); err != nil {
			return err
		}
		insn = insn&^imm24Mask | uint32(x>>2)&imm24Mask

	case elf.R_ARM_PREL31:
		s.Addend += reloc.SignExtend(uint64(insn&prel31), 31)
		x := s.PCRel()
		if err := s.CheckSigned(x, 31); err != nil {
			return err
		}
		insn = insn&^prel31 | uint32(x)&prel31

	case elf.R_ARM_MOVW_ABS_NC, elf.R_ARM_MOVT_ABS:
		imm := insn&imm4Mask>>4 | insn&imm12Mask
		s.Addend += reloc.SignExtend(uint64(imm), 16)
		x := uint32(s.Abs())
		if elf.R_ARM(s.Type) == elf.R_ARM_MOVT_ABS {
			x >>= 16
		}
		x &= 0xffff
		insn = insn&^(imm4Mask|imm12Mask) | x>>12<<16 | x&imm12Mask

	default:
		return s.Errorf(reloc.UnsupportedType, "")
	}
	s.PutUint32(0, insn)
	return nil
}

func (armBackend) SymbolNames(f reloc.Features) []string { return symbolNames(f) }

// An A32 PLT slot is
//
//	ldr pc, [pc, #-4]
//	.word addr
const (
	pltSize       = 8
	pltAddrOff    = 4
	insnLdrPCPCm4 = 0xe51ff004
)

func (armBackend) PLTItemSize() int { return pltSize }

func (armBackend) WritePLTItem(slot []byte, addr uint64) {
	l := arch.ARM.Layout
	l.PutUint32(slot[0:], insnLdrPCPCm4)
	putPLTAddr(slot, addr)
}

// putPLTAddr writes the address word of a PLT slot. reloc.New rejects
// symbol maps with wider addresses, so a wider addr is a caller error.
func putPLTAddr(slot []byte, addr uint64) {
	if addr > math.MaxUint32 {
		panic(fmt.Sprintf("PLT target %#x does not fit in 32 bits", addr))
	}
	arch.ARM.Layout.PutUint32(slot[pltAddrOff:], uint32(addr))
}

func (armBackend) NormalizeTarget(triple string) (string, bool) {
	return targets.arm.Normalize(triple)
}
