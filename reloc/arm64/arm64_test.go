// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm64

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/asm"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc/reloctest"
)

func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func le64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func typ(t elf.R_AARCH64) reloc.Type { return reloc.Type(t) }

const (
	insnBL      = 0x94000000 // bl .
	insnADRP    = 0x90000000 // adrp x0, .
	insnADD     = 0x91000000 // add x0, x0, #0
	insnLDRX    = 0xf9400000 // ldr x0, [x0]
	insnMOVZ    = 0xd2800000 // movz x0, #0
	insnMOVZ16  = 0xd2a00000 // movz x0, #0, lsl #16
	helperBase  = 0x7f00_0000_0000
	adrpPC      = 0x1234_5678
	adrpTarget  = 0x4000_1abc
	adrpPageOff = 0x4000_1000 - 0x1234_5000
)

func TestApply(t *testing.T) {
	l := reloctest.Linker(t, AArch64, helperBase)
	reloctest.Run(t, l, []reloctest.Case{
		{
			Name: "call26",
			Code: le32(insnBL), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.Local(0x20000)},
			Want: le32(insnBL | 0x10000>>2),
		},
		{
			Name: "call26 adds initial immediate",
			Code: le32(insnBL | 1), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.Local(0x20000)},
			Want: le32(insnBL | 0x10004>>2),
		},
		{
			Name: "jump26 backward",
			Code: le32(0x14000000), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_JUMP26), Sym: reloc.Local(0xfff0)},
			Want: le32(0x14000000 | 0x03fffffc),
		},
		{
			Name: "call26 to plt slot",
			Code: le32(insnBL), PC: 0x10000, PLTBase: 0x30000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.External(1)},
			Want: le32(insnBL | (0x30000+16-0x10000)>>2),
		},
		{
			Name: "call26 out of range",
			Code: le32(insnBL), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.Local(0x10000 + 128<<20)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "call26 at range limit",
			Code: le32(insnBL), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.Local(0x10000 + 128<<20 - 4)},
			Want: le32(insnBL | 0x01ffffff),
		},
		{
			Name: "call26 misaligned",
			Code: le32(insnBL), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.Local(0x20002)},
			WantErr: reloc.Misaligned,
		},
		{
			Name: "call26 positive addend through plt",
			Code: le32(insnBL), PC: 0x10000, PLTBase: 0x30000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Addend: 4, Sym: reloc.External(0)},
			WantErr: reloc.UnsupportedAddend,
		},
		{
			Name: "add lo12",
			Code: le32(insnADD), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_ADD_ABS_LO12_NC), Sym: reloc.Local(adrpTarget)},
			Want: le32(insnADD | 0xabc<<10),
		},
		{
			Name: "ldst64 lo12",
			Code: le32(insnLDRX), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_LDST64_ABS_LO12_NC), Sym: reloc.Local(0x4000_1ab8)},
			Want: le32(insnLDRX | (0xab8/8)<<10),
		},
		{
			Name: "ldst64 lo12 misaligned",
			Code: le32(insnLDRX), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_LDST64_ABS_LO12_NC), Sym: reloc.Local(0x4000_1abc)},
			WantErr: reloc.Misaligned,
		},
		{
			Name: "ldst8 lo12 any alignment",
			Code: le32(0x39400000), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_LDST8_ABS_LO12_NC), Sym: reloc.Local(0x4000_1abf)},
			Want: le32(0x39400000 | 0xabf<<10),
		},
		{
			Name: "movw g1",
			Code: le32(insnMOVZ16), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_MOVW_UABS_G1), Sym: reloc.Local(0x1234_5678)},
			Want: le32(insnMOVZ16 | 0x1234<<5),
		},
		{
			Name: "movw g0 overflow",
			Code: le32(insnMOVZ), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_MOVW_UABS_G0), Sym: reloc.Local(0x1234_5678)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "movw g0 nc",
			Code: le32(insnMOVZ), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_MOVW_UABS_G0_NC), Sym: reloc.Local(0x1234_5678)},
			Want: le32(insnMOVZ | 0x5678<<5),
		},
		{
			Name: "abs64 adds initial value",
			Code: le64(0x10), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_ABS64), Addend: 0x10, Sym: reloc.Local(0x7f00_0000_1000)},
			Want: le64(0x7f00_0000_1020),
		},
		{
			Name: "abs32",
			Code: le32(0), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_ABS32), Addend: 0x10, Sym: reloc.Local(0x1234)},
			Want: le32(0x1244),
		},
		{
			Name: "abs32 overflow",
			Code: le32(0), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_ABS32), Sym: reloc.Local(0x1_0000_0000)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "prel32",
			Code: le32(0), PC: 0x1000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_PREL32), Sym: reloc.Local(0x800)},
			Want: le32(0xffff_f800),
		},
		{
			Name: "prel64",
			Code: le64(0), PC: 0x1000,
			Rec:  reloc.Record{Type: typ(elf.R_AARCH64_PREL64), Sym: reloc.Local(0x3000)},
			Want: le64(0x2000),
		},
		{
			Name: "adrp out of range",
			Code: le32(insnADRP), PC: 0x1000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_ADR_PREL_PG_HI21), Sym: reloc.Local(0x1000 + 5<<30)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "unsupported",
			Code: le32(insnADRP), PC: 0x1000,
			Rec:     reloc.Record{Type: typ(elf.R_AARCH64_TLSGD_ADR_PAGE21), Sym: reloc.Local(0x1000)},
			WantErr: reloc.UnsupportedType,
		},
	})
}

// adrpOffset decodes the page offset of an ADRP instruction.
func adrpOffset(insn uint32) int64 {
	imm := uint64(insn>>29&3) | uint64(insn>>5&0x7ffff)<<2
	return reloc.SignExtend(imm, 21) << 12
}

func TestADRP(t *testing.T) {
	l := reloctest.Linker(t, AArch64, helperBase)
	for _, typ := range []elf.R_AARCH64{elf.R_AARCH64_ADR_PREL_PG_HI21, elf.R_AARCH64_ADR_PREL_PG_HI21_NC} {
		code := le32(insnADRP)
		r := reloc.Record{Type: reloc.Type(typ), Sym: reloc.Local(adrpTarget)}
		if err := l.Apply(reloc.View{Base: adrpPC, Data: code}, r, 0); err != nil {
			t.Fatalf("%v: %v", typ, err)
		}
		insn := binary.LittleEndian.Uint32(code)
		if got := adrpOffset(insn); got != adrpPageOff {
			t.Errorf("%v: page offset %#x, want %#x", typ, got, adrpPageOff)
		}
		if insn&^(3<<29|0x7ffff<<5) != insnADRP {
			t.Errorf("%v: opcode bits changed: %#08x", typ, insn)
		}
	}

	// Negative page offsets encode in both immediate fields.
	code := le32(insnADRP)
	r := reloc.Record{Type: typ(elf.R_AARCH64_ADR_PREL_PG_HI21), Sym: reloc.Local(0x1000)}
	if err := l.Apply(reloc.View{Base: 0x7000_3000, Data: code}, r, 0); err != nil {
		t.Fatal(err)
	}
	if got, want := adrpOffset(binary.LittleEndian.Uint32(code)), int64(0x1000-0x7000_3000); got != want {
		t.Errorf("backward page offset %#x, want %#x", got, want)
	}
}

func TestPatchedBranchTarget(t *testing.T) {
	l := reloctest.Linker(t, AArch64, helperBase)
	const pc = 0x40_0000
	for _, target := range []uint64{pc + 0x1234, pc - 0x7_fff0, pc + 4} {
		code := le32(insnBL)
		r := reloc.Record{Type: typ(elf.R_AARCH64_CALL26), Sym: reloc.Local(target &^ 3)}
		if err := l.Apply(reloc.View{Base: pc, Data: code}, r, 0); err != nil {
			t.Fatal(err)
		}
		seq, err := asm.Disasm(arch.ARM64, code, pc)
		if err != nil {
			t.Fatal(err)
		}
		c := seq.Get(0).Control()
		if c.Type != asm.ControlCall || c.TargetPC != target&^3 {
			t.Errorf("want call to %#x, got %+v", target&^3, c)
		}
	}
}

func TestPLT(t *testing.T) {
	l := reloctest.Linker(t, AArch64, helperBase)
	if l.PLTItemSize() != 16 {
		t.Fatalf("PLTItemSize = %d, want 16", l.PLTItemSize())
	}
	plt := make([]byte, l.PLTTableSize())
	l.InitPLT(plt)
	for i, e := range l.SymbolMap().Entries() {
		slot := plt[i*16 : (i+1)*16]
		if got := binary.LittleEndian.Uint64(slot[8:]); got != e.Addr {
			t.Errorf("slot %d address field %#x, want %#x", i, got, e.Addr)
		}
		ldr, err := arm64asm.Decode(slot[0:4])
		if err != nil {
			t.Fatal(err)
		}
		if ldr.Op != arm64asm.LDR || ldr.Args[0] != arm64asm.X17 || ldr.Args[1] != arm64asm.PCRel(8) {
			t.Errorf("slot %d: want LDR X17, #8, got %v", i, ldr)
		}
		br, err := arm64asm.Decode(slot[4:8])
		if err != nil {
			t.Fatal(err)
		}
		if br.Op != arm64asm.BR || br.Args[0] != arm64asm.X17 {
			t.Errorf("slot %d: want BR X17, got %v", i, br)
		}
	}
}
