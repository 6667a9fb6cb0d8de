// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"fmt"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/internal/imap"
)

// A Region is the code region of one loaded module: the module's code
// sections followed by its PLT. Code is laid out at address Base.
//
// A Region is not safe for concurrent use.
type Region struct {
	Base uint64
	Code []byte

	pltSize  int
	sections imap.Imap[*Section]
	byName   map[string]*Section
}

// A Section is a named range of a Region's code.
type Section struct {
	Name   string
	Offset uint64
	Size   uint32
}

func (s *Section) String() string {
	return fmt.Sprintf("%s[%#x,%#x)", s.Name, s.Offset, s.Offset+uint64(s.Size))
}

// NewRegion returns a Region for code at base. The last PLTTableSize
// bytes of code are reserved for l's PLT, which must start at an address
// aligned for the backend's PLT slots.
func (l *Linker) NewRegion(base uint64, code []byte) (*Region, error) {
	plt := l.PLTTableSize()
	if len(code) < plt {
		return nil, fmt.Errorf("code region is %d bytes, too small for %d-byte PLT", len(code), plt)
	}
	if base+uint64(len(code)) < base {
		return nil, fmt.Errorf("code region at %#x wraps the address space", base)
	}
	pltBase := base + uint64(len(code)-plt)
	if align := pltAlign(l.b); plt > 0 && pltBase%align != 0 {
		return nil, fmt.Errorf("PLT at %#x is not %d-byte aligned", pltBase, align)
	}
	return &Region{
		Base:    base,
		Code:    code,
		pltSize: plt,
		byName:  make(map[string]*Section),
	}, nil
}

// funcSize returns the size of the part of r before the PLT.
func (r *Region) funcSize() uint64 {
	return uint64(len(r.Code) - r.pltSize)
}

// AddSection registers a section of size bytes at offset within r. The
// section must lie before the PLT and must not overlap another section.
func (r *Region) AddSection(name string, offset uint64, size uint32) (*Section, error) {
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("duplicate section %q", name)
	}
	end := offset + uint64(size)
	if end < offset || end > r.funcSize() {
		return nil, fmt.Errorf("section %q [%#x,%#x) outside code [0,%#x)", name, offset, end, r.funcSize())
	}
	s := &Section{name, offset, size}
	// Empty sections hold no relocation sites and occupy no addresses.
	if size > 0 {
		key := imap.Interval{Low: r.Base + offset, High: r.Base + end}
		if _, other, ok := r.sections.Insert(key, s); !ok {
			return nil, fmt.Errorf("section %q overlaps section %s", name, other)
		}
	}
	r.byName[name] = s
	return s, nil
}

// Section returns the section with the given name.
func (r *Region) Section(name string) (*Section, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// SectionAt returns the section containing address addr.
func (r *Region) SectionAt(addr uint64) (*Section, bool) {
	_, s := r.sections.Find(addr)
	return s, s != nil
}

// View returns the relocatable view of s.
func (r *Region) View(s *Section) View {
	end := s.Offset + uint64(s.Size)
	return View{
		Base: r.Base + s.Offset,
		Data: r.Code[s.Offset:end:end],
	}
}

// PLT returns the PLT bytes of r.
func (r *Region) PLT() []byte {
	return r.Code[r.funcSize():]
}

// PLTBase returns the address of PLT slot 0.
func (r *Region) PLTBase() uint64 {
	return r.Base + r.funcSize()
}
