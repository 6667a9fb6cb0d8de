// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"strings"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/arch"
)

// A Backend implements relocation for one architecture family.
//
// Backends are stateless and safe for concurrent use.
type Backend interface {
	// Arch returns the architecture this backend relocates for.
	Arch() *arch.Arch

	// Reloc returns the description of relocation type t, or false if
	// the backend does not support t.
	Reloc(t Type) (Info, bool)

	// Apply patches s.Bytes for s.Type. It is called only for types
	// Reloc accepts and with len(s.Bytes) == s.Width. On error, the
	// contents of s.Bytes are discarded.
	Apply(s *Site) error

	// SymbolNames returns the ordered symbol map names for this
	// architecture.
	SymbolNames(f Features) []string

	// PLTItemSize returns the size in bytes of one PLT slot. It may be
	// 0 if the architecture reaches helpers directly.
	PLTItemSize() int

	// WritePLTItem writes one PLT slot that transfers control to addr.
	// len(slot) == PLTItemSize().
	WritePLTItem(slot []byte, addr uint64)

	// NormalizeTarget rewrites the architecture component of the
	// lower-cased target triple to its default sub-variant, and reports
	// whether this backend claims the triple at all.
	NormalizeTarget(triple string) (string, bool)
}

// DirectExternal is implemented by backends whose relocations can reach
// any helper routine directly. For such backends an External record with
// a zero-size PLT resolves to the helper's own address.
type DirectExternal interface {
	DirectExternal() bool
}

func directExternal(b Backend) bool {
	d, ok := b.(DirectExternal)
	return ok && d.DirectExternal()
}

// PLTAligner is implemented by backends whose PLT slots need stricter
// alignment than their instructions, such as a slot that loads a
// PC-relative literal from a word-aligned address.
type PLTAligner interface {
	PLTAlign() int
}

// pltAlign returns the required alignment of b's PLT slots.
func pltAlign(b Backend) uint64 {
	if a, ok := b.(PLTAligner); ok {
		return uint64(a.PLTAlign())
	}
	return uint64(b.Arch().InstAlign)
}

// TargetNames describes the target triples a backend claims.
type TargetNames struct {
	// Default is the default sub-variant name of the family.
	Default string
	// Families are family names rewritten to Default.
	Families []string
	// Variants are prefixes of sub-variant names that are claimed and
	// left as they are.
	Variants []string
}

// Normalize implements Backend.NormalizeTarget for n.
func (n TargetNames) Normalize(triple string) (string, bool) {
	for _, f := range n.Families {
		if triple == f || strings.HasPrefix(triple, f+"-") {
			return n.Default + triple[len(f):], true
		}
	}
	arch, _, _ := strings.Cut(triple, "-")
	for _, v := range n.Variants {
		if strings.HasPrefix(arch, v) {
			return triple, true
		}
	}
	return triple, false
}
