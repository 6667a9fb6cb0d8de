// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm abstracts disassembling machine code from various
// architectures.
package asm

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
)

// Disasm disassembles machine code for the given architecture. pc is
// the program counter at which text begins.
func Disasm(arch *arch.Arch, text []byte, pc uint64) (Seq, error) {
	switch arch.Family {
	case "x86_64":
		return disasmX86(text, pc, 64), nil
	case "i386":
		return disasmX86(text, pc, 32), nil
	case "aarch64":
		return disasmARM64(text, pc), nil
	case "arm":
		return disasmARM(text, pc), nil
	case "riscv64":
		return disasmRISCV64(text, pc), nil
	case "loongarch64":
		return disasmLoong64(text, pc), nil
	}
	return nil, fmt.Errorf("unsupported assembly architecture: %s", arch)
}

// GoSyntax disassembles text and returns the Go assembler syntax of its
// instructions, separated by "; ".
func GoSyntax(arch *arch.Arch, text []byte, pc uint64) (string, error) {
	seq, err := Disasm(arch, text, pc)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 0; i < seq.Len(); i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(seq.Get(i).GoSyntax(nil))
	}
	return b.String(), nil
}

// Seq is a sequence of instructions.
type Seq interface {
	Len() int
	Get(i int) Inst
}

// Inst is a single machine instruction.
type Inst interface {
	// GoSyntax returns the Go assembler syntax representation of
	// this instruction. symname, if non-nil, must return the name
	// and base of the symbol containing address addr, or "" if
	// symbol lookup fails.
	GoSyntax(symName func(addr uint64) (string, uint64)) string

	// PC returns the address of this instruction.
	PC() uint64

	// Len returns the length of this instruction in bytes.
	Len() int

	// Control returns the control-flow effects of this
	// instruction.
	Control() Control
}

// Control captures control-flow effects of an instruction.
type Control struct {
	Type        ControlType
	Conditional bool
	TargetPC    uint64
	Target      Arg
}

type ControlType uint8

const (
	ControlNone ControlType = iota
	ControlJump
	ControlCall
	ControlRet

	// ControlJumpUnknown is a jump with an unknown target. This
	// means the control analysis could be incomplete, since this
	// could jump to an instruction in the analyzed function.
	ControlJumpUnknown

	// ControlExit is like a call that never returns.
	ControlExit
)

// Arg is an argument to an instruction.
type Arg interface {
}

// textReader reads text by address, for disassemblers that resolve
// PC-relative literal loads.
type textReader struct {
	text []byte
	pc   uint64
}

var _ io.ReaderAt = textReader{}

func (r textReader) ReadAt(p []byte, addr int64) (int, error) {
	if uint64(addr) < r.pc || uint64(addr)-r.pc >= uint64(len(r.text)) {
		return 0, io.EOF
	}
	n := copy(p, r.text[uint64(addr)-r.pc:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
