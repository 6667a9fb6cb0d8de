// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package riscv

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"golang.org/x/arch/riscv64/riscv64asm"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/asm"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc/reloctest"
)

func le16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func le32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func le64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func insns(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

func typ(t elf.R_RISCV) reloc.Type { return reloc.Type(t) }

const (
	helperBase = 0x7f00_0000_0000
	insnJAL    = 0x000000ef // jal ra, .
	insnBEQ    = 0x00b50063 // beq a0, a1, .
	insnAUIPC  = 0x00000097 // auipc ra, 0
	insnJALR   = 0x000080e7 // jalr ra, 0(ra)
	insnAUIPC0 = 0x00000517 // auipc a0, 0
	insnADDI   = 0x00050513 // addi a0, a0, 0
	insnSW     = 0x00b52023 // sw a1, 0(a0)
	insnLUI    = 0x00000537 // lui a0, 0
	insnCJ     = 0xa001     // c.j .
	insnCBEQZ  = 0xc101     // c.beqz a0, .
)

// Immediate decoders, written independently of the encoders.
func immI(insn uint32) int64 { return reloc.SignExtend(uint64(insn>>20), 12) }
func immS(insn uint32) int64 {
	return reloc.SignExtend(uint64(insn>>25<<5|insn>>7&0x1f), 12)
}
func immU(insn uint32) int64 { return reloc.SignExtend(uint64(insn>>12), 20) << 12 }

func TestApply(t *testing.T) {
	l := reloctest.Linker(t, RV64, helperBase)
	reloctest.Run(t, l, []reloctest.Case{
		{
			Name: "abs64",
			Code: le64(0xffff), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_RISCV_64), Addend: 8, Sym: reloc.Local(0x7f00_1234_0000)},
			Want: le64(0x7f00_1234_0008),
		},
		{
			Name: "abs32",
			Code: le32(0), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_RISCV_32), Sym: reloc.Local(0xffff_fff0)},
			Want: le32(0xffff_fff0),
		},
		{
			Name: "abs32 negative",
			Code: le32(0), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_32), Addend: -0x20, Sym: reloc.Local(0x10)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "pcrel32",
			Code: le32(0), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_RISCV_32_PCREL), Sym: reloc.Local(0xfff0)},
			Want: le32(0xffff_fff0),
		},
		{
			Name: "jal out of range",
			Code: le32(insnJAL), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_JAL), Sym: reloc.Local(0x10000 + 1<<20)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "jal misaligned",
			Code: le32(insnJAL), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_JAL), Sym: reloc.Local(0x10001)},
			WantErr: reloc.Misaligned,
		},
		{
			Name: "branch out of range",
			Code: le32(insnBEQ), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_BRANCH), Sym: reloc.Local(0x11000)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "call out of range",
			Code: insns(insnAUIPC, insnJALR), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_CALL), Sym: reloc.Local(0x10000 + 1<<31)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "call pair past end of section",
			Code: insns(insnAUIPC, insnJALR), PC: 0x10000,
			Rec:     reloc.Record{Offset: 4, Type: typ(elf.R_RISCV_CALL), Sym: reloc.Local(0x20000)},
			WantErr: reloc.OffsetOutOfBounds,
		},
		{
			Name: "call",
			Code: insns(insnAUIPC, insnJALR), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_RISCV_CALL), Sym: reloc.Local(0x10000 + 0x12346)},
			Want: insns(0x00012097, 0x346080e7),
		},
		{
			Name: "call with negative low part",
			Code: insns(insnAUIPC, insnJALR), PC: 0x10000,
			Rec:  reloc.Record{Type: typ(elf.R_RISCV_CALL_PLT), Sym: reloc.Local(0x10000 + 0x12946)},
			Want: insns(0x00013097, 0x946080e7),
		},
		{
			Name: "rvc jump out of range",
			Code: le16(insnCJ), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_RVC_JUMP), Sym: reloc.Local(0x10800)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "rvc branch out of range",
			Code: le16(insnCBEQZ), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_RVC_BRANCH), Sym: reloc.Local(0x10100)},
			WantErr: reloc.OutOfRange,
		},
		{
			Name: "unsupported",
			Code: le32(0), PC: 0x10000,
			Rec:     reloc.Record{Type: typ(elf.R_RISCV_TLS_GD_HI20), Sym: reloc.Local(0x10000)},
			WantErr: reloc.UnsupportedType,
		},
	})
}

func TestCallPair(t *testing.T) {
	l := reloctest.Linker(t, RV64, helperBase)
	const pc = 0x40_0000
	for _, off := range []int64{0, 2, 0x7fe, 0x800, -0x800, -0x802, 0x1234_5678, -0x7fff_f000, 0x7fff_f7fe} {
		code := insns(insnAUIPC, insnJALR)
		target := uint64(pc + off)
		r := reloc.Record{Type: typ(elf.R_RISCV_CALL), Sym: reloc.Local(target)}
		if err := l.Apply(reloc.View{Base: pc, Data: code}, r, 0); err != nil {
			t.Errorf("offset %#x: %v", off, err)
			continue
		}
		auipc := binary.LittleEndian.Uint32(code[0:])
		jalr := binary.LittleEndian.Uint32(code[4:])
		if got := immU(auipc) + immI(jalr); got != off {
			t.Errorf("offset %#x: auipc+jalr reach %#x", off, got)
		}
		a, err := riscv64asm.Decode(code[0:])
		if err != nil || a.Op != riscv64asm.AUIPC {
			t.Errorf("offset %#x: first instruction %v, %v", off, a, err)
		}
		j, err := riscv64asm.Decode(code[4:])
		if err != nil || j.Op != riscv64asm.JALR {
			t.Errorf("offset %#x: second instruction %v, %v", off, j, err)
		}
	}
}

func TestPCRelPair(t *testing.T) {
	l := reloctest.Linker(t, RV64, helperBase)
	const pc, target = 0x10000, 0x23456
	for _, second := range []struct {
		insn uint32
		typ  elf.R_RISCV
		imm  func(uint32) int64
	}{
		{insnADDI, elf.R_RISCV_PCREL_LO12_I, immI},
		{insnSW, elf.R_RISCV_PCREL_LO12_S, immS},
	} {
		code := insns(insnAUIPC0, second.insn)
		v := reloc.View{Base: pc, Data: code}
		for _, r := range []reloc.Record{
			{Offset: 0, Type: typ(elf.R_RISCV_PCREL_HI20), Sym: reloc.Local(target)},
			{Offset: 4, Type: typ(second.typ), Sym: reloc.Local(target)},
		} {
			if err := l.Apply(v, r, 0); err != nil {
				t.Fatal(err)
			}
		}
		hi := immU(binary.LittleEndian.Uint32(code[0:]))
		lo := second.imm(binary.LittleEndian.Uint32(code[4:]))
		if got := pc + hi + lo; got != target {
			t.Errorf("%v: pair computes %#x, want %#x", second.typ, got, target)
		}
	}
}

func TestAbsPair(t *testing.T) {
	l := reloctest.Linker(t, RV64, helperBase)
	for _, target := range []uint64{0x1234_5fff, 0x800, 0x7fff_f7ff, 0x10} {
		code := insns(insnLUI, insnADDI)
		v := reloc.View{Base: 0x10000, Data: code}
		for _, r := range []reloc.Record{
			{Offset: 0, Type: typ(elf.R_RISCV_HI20), Sym: reloc.Local(target)},
			{Offset: 4, Type: typ(elf.R_RISCV_LO12_I), Sym: reloc.Local(target)},
		} {
			if err := l.Apply(v, r, 0); err != nil {
				t.Fatal(err)
			}
		}
		got := immU(binary.LittleEndian.Uint32(code[0:])) + immI(binary.LittleEndian.Uint32(code[4:]))
		if got != int64(target) {
			t.Errorf("lui+addi computes %#x, want %#x", got, target)
		}
	}
}

// TestBranches checks each branch form against the disassembler's view
// of the patched target.
func TestBranches(t *testing.T) {
	l := reloctest.Linker(t, RV64, helperBase)
	const pc = 0x10000
	for _, test := range []struct {
		code []byte
		typ  elf.R_RISCV
		offs []int64
	}{
		{le32(insnJAL), elf.R_RISCV_JAL, []int64{0, 0x800, -0x10, 0xffffe, -0x100000}},
		{le32(insnBEQ), elf.R_RISCV_BRANCH, []int64{0, -0x10, 0xffe, -0x1000}},
		{le16(insnCJ), elf.R_RISCV_RVC_JUMP, []int64{0, 0x7fe, -0x800, 0x22}},
		{le16(insnCBEQZ), elf.R_RISCV_RVC_BRANCH, []int64{0, 0xfe, -0x100, -0x2a}},
	} {
		for _, off := range test.offs {
			code := append([]byte(nil), test.code...)
			target := uint64(pc + off)
			r := reloc.Record{Type: typ(test.typ), Sym: reloc.Local(target)}
			if err := l.Apply(reloc.View{Base: pc, Data: code}, r, 0); err != nil {
				t.Errorf("%v to %#x: %v", test.typ, target, err)
				continue
			}
			seq, err := asm.Disasm(arch.RISCV64, code, pc)
			if err != nil {
				t.Fatal(err)
			}
			if seq.Len() != 1 {
				t.Fatalf("%v: disassembled %d instructions", test.typ, seq.Len())
			}
			if c := seq.Get(0).Control(); c.TargetPC != target {
				t.Errorf("%v to %#x: disassembler sees target %#x", test.typ, target, c.TargetPC)
			}
		}
	}
}

func TestPLT(t *testing.T) {
	l := reloctest.Linker(t, RV64, helperBase)
	if l.PLTItemSize() != 24 {
		t.Fatalf("PLTItemSize = %d, want 24", l.PLTItemSize())
	}
	plt := make([]byte, l.PLTTableSize())
	l.InitPLT(plt)
	wantOps := []riscv64asm.Op{riscv64asm.AUIPC, riscv64asm.LD, riscv64asm.JALR, riscv64asm.ADDI}
	for i, e := range l.SymbolMap().Entries() {
		slot := plt[i*24 : (i+1)*24]
		if got := binary.LittleEndian.Uint64(slot[16:]); got != e.Addr {
			t.Errorf("slot %d address field %#x, want %#x", i, got, e.Addr)
		}
		for j, op := range wantOps {
			inst, err := riscv64asm.Decode(slot[4*j:])
			if err != nil || inst.Op != op {
				t.Errorf("slot %d instruction %d: want %v, got %v (%v)", i, j, op, inst.Op, err)
			}
		}
		// ld t1, 16(t1) after auipc t1, 0 loads the slot's address word.
		if off := immI(binary.LittleEndian.Uint32(slot[4:])); off != 16 {
			t.Errorf("slot %d: ld offset %d, want 16", i, off)
		}
	}
}
