// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"golang.org/x/arch/loong64/loong64asm"
)

func disasmLoong64(text []byte, pc uint64) Seq {
	var out loong64Seq
	for len(text) >= 4 {
		inst, err := loong64asm.Decode(text)
		if err != nil || inst.Op == 0 {
			inst = loong64asm.Inst{}
		}
		out = append(out, loong64Inst{inst, pc})

		const size = 4
		text = text[size:]
		pc += uint64(size)
	}
	return out
}

type loong64Seq []loong64Inst

func (s loong64Seq) Len() int {
	return len(s)
}

func (s loong64Seq) Get(i int) Inst {
	return &s[i]
}

type loong64Inst struct {
	loong64asm.Inst
	pc uint64
}

func (i *loong64Inst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return loong64asm.GoSyntax(i.Inst, i.pc, symname)
}

func (i *loong64Inst) PC() uint64 {
	return i.pc
}

func (i *loong64Inst) Len() int { return 4 }

func (i *loong64Inst) Control() Control {
	var c Control
	c.TargetPC = ^uint64(0)

	switch i.Op {
	default:
		return c
	case loong64asm.B:
		c.Type = ControlJump
	case loong64asm.BL:
		c.Type = ControlCall
	case loong64asm.JIRL:
		c.Type = ControlCall
		if i.Args[0] == loong64asm.R0 {
			c.Type = ControlJumpUnknown
		}
		return c
	case loong64asm.BEQ, loong64asm.BNE, loong64asm.BLT, loong64asm.BGE,
		loong64asm.BLTU, loong64asm.BGEU, loong64asm.BEQZ, loong64asm.BNEZ,
		loong64asm.BCEQZ, loong64asm.BCNEZ:
		c.Type = ControlJump
		c.Conditional = true
	}

	for _, arg := range i.Args {
		if off, ok := arg.(loong64asm.OffsetSimm); ok {
			c.TargetPC = uint64(int64(i.pc) + int64(off.Imm))
			c.Target = arg
		}
	}
	return c
}
