// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"golang.org/x/arch/arm/armasm"
)

// disasmARM disassembles A32 code. armasm does not decode Thumb.
func disasmARM(text []byte, pc uint64) Seq {
	out := armSeq{text: textReader{text, pc}}
	for len(text) >= 4 {
		inst, err := armasm.Decode(text, armasm.ModeARM)
		if err != nil || inst.Op == 0 {
			inst = armasm.Inst{}
		}
		out.insts = append(out.insts, armInst{inst, pc, out.text})

		const size = 4
		text = text[size:]
		pc += uint64(size)
	}
	return out
}

type armSeq struct {
	insts []armInst
	text  textReader
}

func (s armSeq) Len() int {
	return len(s.insts)
}

func (s armSeq) Get(i int) Inst {
	return &s.insts[i]
}

type armInst struct {
	armasm.Inst
	pc   uint64
	text textReader
}

func (i *armInst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return armasm.GoSyntax(i.Inst, i.pc, symname, i.text)
}

func (i *armInst) PC() uint64 {
	return i.pc
}

func (i *armInst) Len() int { return 4 }

func (i *armInst) Control() Control {
	var c Control
	c.TargetPC = ^uint64(0)

	// Conditional opcodes come in blocks of 16, ordered by condition
	// code: EQ through LE, then AL and the unconditional encoding.
	cond := func(base armasm.Op) (armasm.Op, bool) {
		return i.Op - base, i.Op >= base && i.Op < base+16
	}
	var cc armasm.Op
	if n, ok := cond(armasm.B_EQ); ok {
		c.Type, cc = ControlJump, n
	} else if n, ok := cond(armasm.BL_EQ); ok {
		c.Type, cc = ControlCall, n
	} else if n, ok := cond(armasm.BLX_EQ); ok {
		c.Type, cc = ControlCall, n
	} else if n, ok := cond(armasm.BX_EQ); ok {
		c.Type, cc = ControlJumpUnknown, n
	}
	c.Conditional = c.Type != ControlNone && cc < 14

	for _, arg := range i.Args {
		if rel, ok := arg.(armasm.PCRel); ok {
			// The A32 PC reads two instructions ahead.
			c.TargetPC = uint64(int64(i.pc) + 8 + int64(rel))
			c.Target = arg
		}
	}
	return c
}
