// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/asm"
)

// SectionRelocs is the relocation list of one section of a Region.
type SectionRelocs struct {
	Section string
	Records []Record
}

// Link writes r's PLT and then applies all relocations. See Relocate.
func (l *Linker) Link(r *Region, sections []SectionRelocs) error {
	l.InitPLT(r.PLT())
	return l.Relocate(r, sections)
}

// Relocate applies the relocations of each section of r, in order. It
// stops at the first record that fails and returns a *RecordError
// describing it. Records applied before the failure stay applied.
//
// r's PLT must already be initialized before r's code runs, but
// Relocate itself does not read it.
func (l *Linker) Relocate(r *Region, sections []SectionRelocs) error {
	if r.pltSize != l.PLTTableSize() {
		return fmt.Errorf("region has %d-byte PLT, linker needs %d", r.pltSize, l.PLTTableSize())
	}
	pltBase := r.PLTBase()
	for _, sr := range sections {
		sec, ok := r.Section(sr.Section)
		if !ok {
			return fmt.Errorf("relocations for unknown section %q", sr.Section)
		}
		v := r.View(sec)
		for i := range sr.Records {
			rec := &sr.Records[i]
			s, err := l.apply(v, *rec, pltBase)
			if err != nil {
				l.log.Error("relocation failed",
					zap.String("section", sec.Name),
					zap.Int("index", i),
					zap.String("type", l.typeName(rec.Type)),
					zap.Uint64("offset", rec.Offset),
					zap.Error(err))
				return &RecordError{Section: sec.Name, Index: i, Err: err}
			}
			if l.trace {
				l.traceSite(v, s)
			}
		}
	}
	return nil
}

func (l *Linker) typeName(t Type) string {
	if info, ok := l.b.Reloc(t); ok {
		return info.Name
	}
	return fmt.Sprintf("type %d", t)
}

func (l *Linker) traceSite(v View, s *Site) {
	fields := []zap.Field{
		zap.String("type", s.Name),
		zap.Uint64("offset", s.Offset),
		zap.Stringer("sym", s.Sym),
		zap.Uint64("pc", s.PC),
		zap.Uint64("target", s.S),
		zap.Int64("addend", s.Addend),
	}
	if s.Inst {
		patched := v.Data[s.Offset : s.Offset+uint64(s.Width)]
		if text, err := asm.GoSyntax(l.b.Arch(), patched, s.PC); err == nil {
			fields = append(fields, zap.String("inst", text))
		}
	}
	l.log.Debug("applied relocation", fields...)
}
