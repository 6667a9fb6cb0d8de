// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reloc links the machine code of an ahead-of-time compiled
// module in place: it patches every relocation site of the module's code
// region so that calls, branches and address loads reach other functions
// of the module, runtime helper routines, and constant pools.
//
// The architecture-specific work is done by a Backend. A Linker pairs a
// Backend with a symbol map and drives relocation of a Region. All
// relocation happens once, before the region is made executable.
package reloc

import (
	"fmt"
)

// Type is an architecture-scoped relocation type code. The numbering is
// the ELF numbering of the architecture.
type Type uint32

// Info describes one relocation type of a backend.
type Info struct {
	// Name is the conventional name of the relocation type.
	Name string

	// Width is the number of bytes at the relocation offset that the
	// relocation reads and writes.
	Width int

	// Inst is set if the relocation offset is the start of an
	// instruction (as opposed to a data word or a field in the middle
	// of a variable-length instruction).
	Inst bool
}

type symKind uint8

const (
	symNone symKind = iota
	symLocal
	symExternal
)

// A SymRef is the target of a relocation: either a function of the
// module itself at a known address, or an entry of the symbol map. The
// zero SymRef refers to nothing and is rejected by the Linker.
type SymRef struct {
	kind symKind
	v    uint64
}

// Local returns a reference to addr, a location inside the module's own
// code region.
func Local(addr uint64) SymRef {
	return SymRef{symLocal, addr}
}

// External returns a reference to the index'th entry of the symbol map,
// reached through its PLT slot.
func External(index int) SymRef {
	if index < 0 {
		panic(fmt.Sprintf("negative symbol index %d", index))
	}
	return SymRef{symExternal, uint64(index)}
}

// Local returns the address of a Local reference.
func (s SymRef) Local() (addr uint64, ok bool) {
	return s.v, s.kind == symLocal
}

// External returns the symbol map index of an External reference.
func (s SymRef) External() (index int, ok bool) {
	return int(s.v), s.kind == symExternal
}

func (s SymRef) String() string {
	switch s.kind {
	case symLocal:
		return fmt.Sprintf("local %#x", s.v)
	case symExternal:
		return fmt.Sprintf("external #%d", s.v)
	}
	return "<none>"
}

// A Record is one relocation to apply to a section.
type Record struct {
	// Offset is the byte offset of the relocation site from the start
	// of the section.
	Offset uint64
	// Addend is the explicit addend of the relocation.
	Addend int64
	// Type is the relocation type.
	Type Type
	// Sym is the relocation target.
	Sym SymRef
}

// Features selects the optional runtime helpers that appear in a
// backend's symbol map.
type Features struct {
	// BulkMemory adds the bulk memory helpers.
	BulkMemory bool
	// Threads adds the atomic wait and notify helpers.
	Threads bool
}

// SymbolNames returns a symbol map name list: the helpers shared by every
// architecture, then the given architecture-specific intrinsics, then the
// optional helpers selected by f.
func SymbolNames(f Features, intrinsics ...string) []string {
	names := []string{
		"set_exception_with_id",
		"invoke_native",
		"call_indirect",
		"enlarge_memory",
		"set_exception",
		"check_app_addr_and_convert",
	}
	names = append(names, intrinsics...)
	if f.BulkMemory {
		names = append(names, "memory_init", "data_drop", "memmove", "memset")
	}
	if f.Threads {
		names = append(names, "atomic_wait", "atomic_notify")
	}
	return names
}
