// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package x86 implements relocation for x86-64 and x86-32 code.
package x86

import (
	"debug/elf"
	"fmt"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

// AMD64 relocates x86-64 code. Relocated fields are overwritten with the
// computed value; the addend comes from the record.
var AMD64 reloc.Backend = amd64{}

// I386 relocates x86-32 code. The initial contents of a relocated field
// are added to the record's addend. Every helper is reached directly, so
// I386 has no PLT.
var I386 reloc.Backend = i386{}

func info(t fmt.Stringer, width int) reloc.Info {
	return reloc.Info{Name: t.String(), Width: width}
}

var amd64Relocs = map[reloc.Type]reloc.Info{
	reloc.Type(elf.R_X86_64_64):    info(elf.R_X86_64_64, 8),
	reloc.Type(elf.R_X86_64_PC32):  info(elf.R_X86_64_PC32, 4),
	reloc.Type(elf.R_X86_64_PLT32): info(elf.R_X86_64_PLT32, 4),
	reloc.Type(elf.R_X86_64_32):    info(elf.R_X86_64_32, 4),
	reloc.Type(elf.R_X86_64_32S):   info(elf.R_X86_64_32S, 4),
	reloc.Type(elf.R_X86_64_PC64):  info(elf.R_X86_64_PC64, 8),
}

var i386Relocs = map[reloc.Type]reloc.Info{
	reloc.Type(elf.R_386_32):    info(elf.R_386_32, 4),
	reloc.Type(elf.R_386_PC32):  info(elf.R_386_PC32, 4),
	reloc.Type(elf.R_386_PLT32): info(elf.R_386_PLT32, 4),
}

var targets = struct {
	amd64, i386 reloc.TargetNames
}{
	amd64: reloc.TargetNames{
		Default:  "x86_64",
		Families: []string{"x86_64", "x86-64", "amd64", "x64"},
	},
	i386: reloc.TargetNames{
		Default:  "i386",
		Families: []string{"i386", "i486", "i586", "i686", "x86", "ia32"},
	},
}

type amd64 struct{}

func (amd64) Arch() *arch.Arch { return arch.AMD64 }

func (amd64) Reloc(t reloc.Type) (reloc.Info, bool) {
	info, ok := amd64Relocs[t]
	return info, ok
}

func (amd64) Apply(s *reloc.Site) error {
	switch elf.R_X86_64(s.Type) {
	case elf.R_X86_64_64:
		s.PutUint64(0, uint64(s.Abs()))
	case elf.R_X86_64_PC64:
		s.PutUint64(0, uint64(s.PCRel()))
	case elf.R_X86_64_PC32, elf.R_X86_64_PLT32:
		v := s.PCRel()
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))
	case elf.R_X86_64_32:
		v := s.Abs()
		if err := s.CheckUnsigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))
	case elf.R_X86_64_32S:
		v := s.Abs()
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
		s.PutUint32(0, uint32(v))
	default:
		return s.Errorf(reloc.UnsupportedType, "")
	}
	return nil
}

func (amd64) SymbolNames(f reloc.Features) []string {
	return reloc.SymbolNames(f)
}

// An x86-64 PLT slot is
//
//	movabs $addr, %rax
//	jmp    *%rax
const (
	amd64PLTSize    = 12
	amd64PLTAddrOff = 2
)

func (amd64) PLTItemSize() int { return amd64PLTSize }

func (amd64) WritePLTItem(slot []byte, addr uint64) {
	slot[0], slot[1] = 0x48, 0xb8
	arch.AMD64.Layout.PutUint64(slot[amd64PLTAddrOff:], addr)
	slot[10], slot[11] = 0xff, 0xe0
}

func (amd64) NormalizeTarget(triple string) (string, bool) {
	return targets.amd64.Normalize(triple)
}

type i386 struct{}

func (i386) Arch() *arch.Arch { return arch.I386 }

func (i386) Reloc(t reloc.Type) (reloc.Info, bool) {
	info, ok := i386Relocs[t]
	return info, ok
}

func (i386) Apply(s *reloc.Site) error {
	initial := int64(int32(s.Uint32(0)))
	var v int64
	switch elf.R_386(s.Type) {
	case elf.R_386_32:
		v = s.Abs() + initial
		if err := s.CheckWord(v, 32); err != nil {
			return err
		}
	case elf.R_386_PC32, elf.R_386_PLT32:
		v = s.PCRel() + initial
		if err := s.CheckSigned(v, 32); err != nil {
			return err
		}
	default:
		return s.Errorf(reloc.UnsupportedType, "")
	}
	s.PutUint32(0, uint32(v))
	return nil
}

// i386Intrinsics are the 64-bit arithmetic routines 32-bit x86 code
// calls.
var i386Intrinsics = []string{
	"__divdi3",
	"__udivdi3",
	"__moddi3",
	"__umoddi3",
}

func (i386) SymbolNames(f reloc.Features) []string {
	return reloc.SymbolNames(f, i386Intrinsics...)
}

func (i386) PLTItemSize() int { return 0 }

func (i386) WritePLTItem(slot []byte, addr uint64) {}

func (i386) DirectExternal() bool { return true }

func (i386) NormalizeTarget(triple string) (string, bool) {
	return targets.i386.Normalize(triple)
}
