// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"golang.org/x/arch/arm64/arm64asm"
)

// disasmARM64 decodes A64 code. A trailing partial word is dropped.
func disasmARM64(text []byte, pc uint64) Seq {
	seq := arm64Seq{text: textReader{text, pc}}
	for off := 0; off+4 <= len(text); off += 4 {
		inst, err := arm64asm.Decode(text[off:])
		if err != nil {
			inst = arm64asm.Inst{}
		}
		seq.insts = append(seq.insts, arm64Inst{inst, pc + uint64(off), seq.text})
	}
	return seq
}

type arm64Seq struct {
	insts []arm64Inst
	text  textReader
}

func (s arm64Seq) Len() int       { return len(s.insts) }
func (s arm64Seq) Get(i int) Inst { return &s.insts[i] }

type arm64Inst struct {
	arm64asm.Inst
	pc uint64
	// text resolves PC-relative literal loads, such as the address
	// word of a PLT slot.
	text textReader
}

func (i *arm64Inst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return arm64asm.GoSyntax(i.Inst, i.pc, symname, i.text)
}

func (i *arm64Inst) PC() uint64 { return i.pc }

func (i *arm64Inst) Len() int { return 4 }

var arm64Flow = map[arm64asm.Op]Control{
	arm64asm.B:    {Type: ControlJump},
	arm64asm.CBZ:  {Type: ControlJump, Conditional: true},
	arm64asm.CBNZ: {Type: ControlJump, Conditional: true},
	arm64asm.TBZ:  {Type: ControlJump, Conditional: true},
	arm64asm.TBNZ: {Type: ControlJump, Conditional: true},
	arm64asm.BR:   {Type: ControlJumpUnknown},
	arm64asm.BL:   {Type: ControlCall},
	arm64asm.BLR:  {Type: ControlCall},
	arm64asm.SYS:  {Type: ControlCall},
	arm64asm.SYSL: {Type: ControlCall},
	arm64asm.RET:  {Type: ControlRet},
	arm64asm.ERET: {Type: ControlRet},
	arm64asm.BRK:  {Type: ControlExit},
}

func (i *arm64Inst) Control() Control {
	c := arm64Flow[i.Op]
	c.TargetPC = ^uint64(0)
	if c.Type == ControlNone {
		// CSEL and ADRP carry conditions and PC-relative operands
		// without transferring control.
		return c
	}
	for _, arg := range i.Args {
		switch arg := arg.(type) {
		case arm64asm.Cond:
			// B.cond decodes as B with a condition operand.
			c.Conditional = true
		case arm64asm.PCRel:
			c.TargetPC = i.pc + uint64(arg)
			c.Target = arg
		}
	}
	return c
}
