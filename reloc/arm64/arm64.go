// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arm64 implements relocation for AArch64 code.
//
// The initial contents of each relocated field are decoded and added to
// the record's addend before the relocation is computed.
package arm64

import (
	"debug/elf"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

// AArch64 relocates AArch64 code.
var AArch64 reloc.Backend = backend{}

type kind uint8

const (
	kData kind = iota
	kPCData
	kBranch
	kPage
	kLo12
	kMovW
)

type relType struct {
	kind  kind
	width int
	// check requests a range check for kPage and kMovW.
	check bool
	// shift is the LDST scale for kLo12 and the group shift for kMovW.
	shift uint
}

var relocs = map[elf.R_AARCH64]relType{
	elf.R_AARCH64_ABS64:               {kind: kData, width: 8},
	elf.R_AARCH64_ABS32:               {kind: kData, width: 4},
	elf.R_AARCH64_PREL64:              {kind: kPCData, width: 8},
	elf.R_AARCH64_PREL32:              {kind: kPCData, width: 4},
	elf.R_AARCH64_CALL26:              {kind: kBranch, width: 4},
	elf.R_AARCH64_JUMP26:              {kind: kBranch, width: 4},
	elf.R_AARCH64_ADR_PREL_PG_HI21:    {kind: kPage, width: 4, check: true},
	elf.R_AARCH64_ADR_PREL_PG_HI21_NC: {kind: kPage, width: 4},
	elf.R_AARCH64_ADD_ABS_LO12_NC:     {kind: kLo12, width: 4},
	elf.R_AARCH64_LDST8_ABS_LO12_NC:   {kind: kLo12, width: 4},
	elf.R_AARCH64_LDST16_ABS_LO12_NC:  {kind: kLo12, width: 4, shift: 1},
	elf.R_AARCH64_LDST32_ABS_LO12_NC:  {kind: kLo12, width: 4, shift: 2},
	elf.R_AARCH64_LDST64_ABS_LO12_NC:  {kind: kLo12, width: 4, shift: 3},
	elf.R_AARCH64_LDST128_ABS_LO12_NC: {kind: kLo12, width: 4, shift: 4},
	elf.R_AARCH64_MOVW_UABS_G0:        {kind: kMovW, width: 4, check: true},
	elf.R_AARCH64_MOVW_UABS_G0_NC:     {kind: kMovW, width: 4},
	elf.R_AARCH64_MOVW_UABS_G1:        {kind: kMovW, width: 4, check: true, shift: 16},
	elf.R_AARCH64_MOVW_UABS_G1_NC:     {kind: kMovW, width: 4, shift: 16},
	elf.R_AARCH64_MOVW_UABS_G2:        {kind: kMovW, width: 4, check: true, shift: 32},
	elf.R_AARCH64_MOVW_UABS_G2_NC:     {kind: kMovW, width: 4, shift: 32},
	elf.R_AARCH64_MOVW_UABS_G3:        {kind: kMovW, width: 4, shift: 48},
}

// Instruction fields.
const (
	imm26Mask  = 0x03ffffff
	immloShift = 29
	immloMask  = 3 << immloShift
	immhiShift = 5
	immhiMask  = 0x7ffff << immhiShift
	imm12Shift = 10
	imm12Mask  = 0xfff << imm12Shift
	imm16Shift = 5
	imm16Mask  = 0xffff << imm16Shift
)

var targets = reloc.TargetNames{
	Default:  "aarch64v8",
	Families: []string{"aarch64", "arm64"},
	Variants: []string{"aarch64"},
}

type backend struct{}

func (backend) Arch() *arch.Arch { return arch.ARM64 }

func (backend) Reloc(t reloc.Type) (reloc.Info, bool) {
	r, ok := relocs[elf.R_AARCH64(t)]
	if !ok {
		return reloc.Info{}, false
	}
	return reloc.Info{
		Name:  elf.R_AARCH64(t).String(),
		Width: r.width,
		Inst:  r.kind >= kBranch,
	}, true
}

func (backend) Apply(s *reloc.Site) error {
	r, ok := relocs[elf.R_AARCH64(s.Type)]
	if !ok {
		return s.Errorf(reloc.UnsupportedType, "")
	}
	switch r.kind {
	case kData, kPCData:
		return applyData(s, r)
	}

	insn := s.Uint32(0)
	switch r.kind {
	case kBranch:
		s.Addend += reloc.SignExtend(uint64(insn&imm26Mask)<<2, 28)
		if err := s.NoPositivePLTAddend(); err != nil {
			return err
		}
		x := s.PCRel()
		if err := s.CheckSigned(x, 28); err != nil {
			return err
		}
		if err := s.CheckAlign(x, int64(arch.ARM64.InstAlign)); err != nil {
			return err
		}
		insn = insn&^imm26Mask | uint32(x>>2)&imm26Mask

	case kPage:
		imm := uint64(insn&immhiMask)>>immhiShift<<2 | uint64(insn&immloMask)>>immloShift
		s.Addend += reloc.SignExtend(imm, 21) << 12
		page := arch.ARM64.Page
		x := int64(page(uint64(s.Abs()))) - int64(page(s.PC))
		if r.check {
			if err := s.CheckSigned(x, 33); err != nil {
				return err
			}
		}
		imm = uint64(x >> 12)
		insn = insn&^(immloMask|immhiMask) |
			uint32(imm&3)<<immloShift |
			uint32(imm>>2&0x7ffff)<<immhiShift

	case kLo12:
		s.Addend += int64(insn&imm12Mask>>imm12Shift) << r.shift
		x := s.Abs() & 0xfff
		if err := s.CheckAlign(x, 1<<r.shift); err != nil {
			return err
		}
		insn = insn&^imm12Mask | uint32(x>>r.shift)<<imm12Shift

	case kMovW:
		s.Addend += int64(insn&imm16Mask>>imm16Shift) << r.shift
		x := s.Abs()
		if r.check {
			if err := s.CheckUnsigned(x, r.shift+16); err != nil {
				return err
			}
		}
		insn = insn&^imm16Mask | uint32(uint64(x)>>r.shift&0xffff)<<imm16Shift
	}
	s.PutUint32(0, insn)
	return nil
}

func applyData(s *reloc.Site, r relType) error {
	if r.width == 8 {
		s.Addend += int64(s.Uint64(0))
	} else {
		s.Addend += int64(int32(s.Uint32(0)))
	}
	x := s.Abs()
	if r.kind == kPCData {
		x = s.PCRel()
	}
	if r.width == 8 {
		s.PutUint64(0, uint64(x))
		return nil
	}
	if err := s.CheckWord(x, 32); err != nil {
		return err
	}
	s.PutUint32(0, uint32(x))
	return nil
}

func (backend) SymbolNames(f reloc.Features) []string {
	return reloc.SymbolNames(f)
}

// An AArch64 PLT slot is
//
//	ldr x17, #8
//	br  x17
//	.quad addr
const (
	pltSize    = 16
	pltAddrOff = 8
	insnLdrX17 = 0x58000051
	insnBrX17  = 0xd61f0220
)

func (backend) PLTItemSize() int { return pltSize }

func (backend) WritePLTItem(slot []byte, addr uint64) {
	l := arch.ARM64.Layout
	l.PutUint32(slot[0:], insnLdrX17)
	l.PutUint32(slot[4:], insnBrX17)
	l.PutUint64(slot[pltAddrOff:], addr)
}

func (backend) NormalizeTarget(triple string) (string, bool) {
	return targets.Normalize(triple)
}
