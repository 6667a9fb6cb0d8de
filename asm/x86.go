// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"golang.org/x/arch/x86/x86asm"
)

// disasmX86 decodes text in the given mode (32 or 64). Bytes that do
// not decode become one-byte invalid instructions so decoding can
// resynchronize.
func disasmX86(text []byte, pc uint64, mode int) Seq {
	var seq x86Seq
	for off := 0; off < len(text); {
		inst, err := x86asm.Decode(text[off:], mode)
		n := min(inst.Len, len(text)-off)
		if err != nil || n <= 0 || inst.Op == 0 {
			inst, n = x86asm.Inst{Len: 1}, 1
		}
		seq = append(seq, x86Inst{inst, pc + uint64(off)})
		off += n
	}
	return seq
}

type x86Seq []x86Inst

func (s x86Seq) Len() int       { return len(s) }
func (s x86Seq) Get(i int) Inst { return &s[i] }

type x86Inst struct {
	x86asm.Inst
	pc uint64
}

func (i *x86Inst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return x86asm.GoSyntax(i.Inst, i.pc, symname)
}

func (i *x86Inst) PC() uint64 { return i.pc }

func (i *x86Inst) Len() int { return i.Inst.Len }

// x86Flow classifies the x86 instructions that transfer control.
var x86Flow = map[x86asm.Op]Control{
	x86asm.CALL:     {Type: ControlCall},
	x86asm.LCALL:    {Type: ControlCall},
	x86asm.SYSCALL:  {Type: ControlCall},
	x86asm.SYSENTER: {Type: ControlCall},
	x86asm.RET:      {Type: ControlRet},
	x86asm.LRET:     {Type: ControlRet},
	x86asm.SYSRET:   {Type: ControlRet},
	x86asm.SYSEXIT:  {Type: ControlRet},
	x86asm.UD1:      {Type: ControlExit},
	x86asm.UD2:      {Type: ControlExit},
	x86asm.JMP:      {Type: ControlJump},
	x86asm.LJMP:     {Type: ControlJump},
}

func init() {
	for _, op := range []x86asm.Op{
		x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ,
		x86asm.JE, x86asm.JECXZ, x86asm.JG, x86asm.JGE, x86asm.JL,
		x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP, x86asm.JNS,
		x86asm.JO, x86asm.JP, x86asm.JRCXZ, x86asm.JS,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE, x86asm.XBEGIN,
	} {
		x86Flow[op] = Control{Type: ControlJump, Conditional: true}
	}
}

// repeats reports whether i carries a REP or REPNE prefix.
func (i *x86Inst) repeats() bool {
	for _, p := range i.Prefix {
		switch p {
		case 0:
			return false
		case x86asm.PrefixREP, x86asm.PrefixREPN:
			return true
		}
	}
	return false
}

func (i *x86Inst) Control() Control {
	if i.repeats() {
		// A repeated string instruction branches back to itself.
		return Control{Type: ControlJump, Conditional: true, TargetPC: i.pc}
	}
	c := x86Flow[i.Op]
	switch c.Type {
	case ControlNone, ControlRet, ControlExit:
		return c
	}
	// SYSCALL and friends have no operand.
	if i.Args[0] == nil {
		c.TargetPC = ^uint64(0)
		return c
	}
	c.Target = i.Args[0]
	if rel, ok := i.Args[0].(x86asm.Rel); ok {
		c.TargetPC = i.pc + uint64(i.Inst.Len) + uint64(int64(rel))
		return c
	}
	// Through a register or memory, as in a PLT slot.
	c.TargetPC = ^uint64(0)
	if c.Type == ControlJump {
		c.Type = ControlJumpUnknown
	}
	return c
}
