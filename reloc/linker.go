// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/symtab"
)

// A Linker relocates regions of code for one Backend against one symbol
// map. A Linker is immutable and may relocate different regions from
// multiple goroutines.
type Linker struct {
	b     Backend
	syms  *symtab.Map
	trace bool
	log   *zap.Logger
}

// New returns a Linker that applies b's relocations with targets from m.
// m's names must be exactly b.SymbolNames(cfg.Features), in order, since
// External index i refers to entry i and to PLT slot i.
func New(b Backend, m *symtab.Map, cfg Config) (*Linker, error) {
	want := b.SymbolNames(cfg.Features)
	if m.Len() != len(want) {
		return nil, fmt.Errorf("%s symbol map has %d entries, features %+v need %d", b.Arch(), m.Len(), cfg.Features, len(want))
	}
	for i, name := range want {
		if got := m.Entry(i).Name; got != name {
			return nil, fmt.Errorf("%s symbol map entry %d is %q, want %q", b.Arch(), i, got, name)
		}
	}
	if bits := 8 * b.Arch().Layout.WordSize(); bits < 64 {
		for _, e := range m.Entries() {
			if e.Addr>>bits != 0 {
				return nil, fmt.Errorf("%s helper %s at %#x does not fit in a %d-bit address", b.Arch(), e.Name, e.Addr, bits)
			}
		}
	}
	return &Linker{
		b:     b,
		syms:  m,
		trace: cfg.Trace,
		log:   cfg.logger().With(zap.Stringer("arch", b.Arch())),
	}, nil
}

// Bind returns a Linker for b whose symbol map holds the helpers
// selected by cfg.Features, located by resolve.
func Bind(b Backend, resolve symtab.Resolver, cfg Config) (*Linker, error) {
	m, err := symtab.Bind(b.SymbolNames(cfg.Features), resolve)
	if err != nil {
		return nil, err
	}
	return New(b, m, cfg)
}

// Backend returns l's backend.
func (l *Linker) Backend() Backend {
	return l.b
}

// SymbolMap returns the symbol map l resolves External references
// against.
func (l *Linker) SymbolMap() *symtab.Map {
	return l.syms
}

// PLTItemSize returns the size of one PLT slot.
func (l *Linker) PLTItemSize() int {
	return l.b.PLTItemSize()
}

// PLTTableSize returns the size of the complete PLT, one slot per symbol
// map entry.
func (l *Linker) PLTTableSize() int {
	return l.b.PLTItemSize() * l.syms.Len()
}

// InitPLT writes the PLT into plt. Slot i transfers control to symbol
// map entry i. It panics if plt is shorter than PLTTableSize.
func (l *Linker) InitPLT(plt []byte) {
	item := l.b.PLTItemSize()
	if need := l.PLTTableSize(); len(plt) < need {
		panic(fmt.Sprintf("PLT buffer is %d bytes, need %d", len(plt), need))
	}
	if item == 0 {
		return
	}
	for i, e := range l.syms.Entries() {
		off := i * item
		l.b.WritePLTItem(plt[off:off+item:off+item], e.Addr)
	}
}

// Apply applies one relocation to the section v. pltBase is the address
// of PLT slot 0. If Apply returns an error, v is unchanged.
func (l *Linker) Apply(v View, r Record, pltBase uint64) error {
	_, err := l.apply(v, r, pltBase)
	return err
}

// apply is Apply, also returning the applied site for tracing.
func (l *Linker) apply(v View, r Record, pltBase uint64) (*Site, error) {
	info, ok := l.b.Reloc(r.Type)
	if !ok {
		return nil, &Error{Kind: UnsupportedType, Type: r.Type, Offset: r.Offset}
	}
	window, err := v.window(&r, info)
	if err != nil {
		return nil, err
	}

	var scratch [16]byte
	s := &Site{
		Record: r,
		Info:   info,
		PC:     v.Base + r.Offset,
		Layout: l.b.Arch().Layout,
		Bytes:  scratch[:info.Width],
	}
	if err := l.resolve(s, pltBase); err != nil {
		return nil, err
	}
	copy(s.Bytes, window)
	if err := l.b.Apply(s); err != nil {
		return nil, err
	}
	copy(window, s.Bytes)
	return s, nil
}

// resolve sets s.S from s.Sym.
func (l *Linker) resolve(s *Site, pltBase uint64) error {
	if addr, ok := s.Sym.Local(); ok {
		s.S = addr
		return nil
	}
	i, ok := s.Sym.External()
	if !ok {
		return s.Errorf(BadSymbol, "relocation has no target")
	}
	if i >= l.syms.Len() {
		return s.Errorf(BadSymbol, "symbol index %d not in %d-entry symbol map", i, l.syms.Len())
	}
	item := l.b.PLTItemSize()
	if item == 0 {
		if !directExternal(l.b) {
			return s.Errorf(UnsupportedAddend, "external symbol %q with no PLT", l.syms.Entry(i).Name)
		}
		s.S = l.syms.Entry(i).Addr
		return nil
	}
	if align := pltAlign(l.b); pltBase%align != 0 {
		e := s.newError(Misaligned)
		e.Value, e.Align = int64(pltBase), int64(align)
		e.Detail = "PLT base"
		return e
	}
	s.S = pltBase + uint64(i)*uint64(item)
	s.ViaPLT = true
	return nil
}
