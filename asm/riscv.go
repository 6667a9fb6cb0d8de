// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"golang.org/x/arch/riscv64/riscv64asm"
)

func disasmRISCV64(text []byte, pc uint64) Seq {
	out := riscv64Seq{text: textReader{text, pc}}
	for len(text) >= 2 {
		inst, err := riscv64asm.Decode(text)
		size := inst.Len
		if err != nil || size == 0 || inst.Op == 0 {
			inst = riscv64asm.Inst{}
			// Skip by the length the low bits announce.
			size = 2
			if text[0]&3 == 3 {
				size = 4
			}
		}
		if size > len(text) {
			break
		}
		out.insts = append(out.insts, riscv64Inst{inst, pc, size, out.text})

		text = text[size:]
		pc += uint64(size)
	}
	return out
}

type riscv64Seq struct {
	insts []riscv64Inst
	text  textReader
}

func (s riscv64Seq) Len() int {
	return len(s.insts)
}

func (s riscv64Seq) Get(i int) Inst {
	return &s.insts[i]
}

type riscv64Inst struct {
	riscv64asm.Inst
	pc   uint64
	size int
	text textReader
}

func (i *riscv64Inst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return riscv64asm.GoSyntax(i.Inst, i.pc, symname, i.text)
}

func (i *riscv64Inst) PC() uint64 {
	return i.pc
}

func (i *riscv64Inst) Len() int { return i.size }

func (i *riscv64Inst) Control() Control {
	var c Control
	c.TargetPC = ^uint64(0)

	switch i.Op {
	default:
		return c
	case riscv64asm.JAL:
		c.Type = ControlCall
		if i.Args[0] == riscv64asm.X0 {
			c.Type = ControlJump
		}
	case riscv64asm.C_J:
		c.Type = ControlJump
	case riscv64asm.JALR, riscv64asm.C_JALR:
		c.Type = ControlCall
		if i.Args[0] == riscv64asm.X0 {
			c.Type = ControlJumpUnknown
		}
		return c
	case riscv64asm.C_JR:
		c.Type = ControlJumpUnknown
		return c
	case riscv64asm.BEQ, riscv64asm.BNE, riscv64asm.BLT, riscv64asm.BGE,
		riscv64asm.BLTU, riscv64asm.BGEU, riscv64asm.C_BEQZ, riscv64asm.C_BNEZ:
		c.Type = ControlJump
		c.Conditional = true
	}

	for _, arg := range i.Args {
		if imm, ok := arg.(riscv64asm.Simm); ok {
			c.TargetPC = uint64(int64(i.pc) + int64(imm.Imm))
			c.Target = arg
		}
	}
	return c
}
