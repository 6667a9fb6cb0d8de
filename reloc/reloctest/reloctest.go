// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reloctest provides utilities for testing relocation backends.
package reloctest

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
	"github.com/bytecodealliance/wasm-micro-runtime-sub008/symtab"
)

// HelperStride is the distance between the addresses SymbolMap assigns
// to consecutive helpers.
const HelperStride = 0x100

// SymbolMap returns b's symbol map with features f, placing helper i at
// base + i*HelperStride.
func SymbolMap(t testing.TB, b reloc.Backend, f reloc.Features, base uint64) *symtab.Map {
	t.Helper()
	names := b.SymbolNames(f)
	addrs := make(map[string]uint64, len(names))
	for i, name := range names {
		addrs[name] = base + uint64(i)*HelperStride
	}
	m, err := symtab.Bind(names, symtab.Addrs(addrs))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// Linker returns a Linker for b whose helpers start at helperBase and
// that logs to t.
func Linker(t testing.TB, b reloc.Backend, helperBase uint64) *reloc.Linker {
	t.Helper()
	m := SymbolMap(t, b, reloc.Features{}, helperBase)
	return New(t, b, m, reloc.Config{Logger: zaptest.NewLogger(t), Trace: true})
}

// New is reloc.New, failing t on error.
func New(t testing.TB, b reloc.Backend, m *symtab.Map, cfg reloc.Config) *reloc.Linker {
	t.Helper()
	l, err := reloc.New(b, m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

// A Case is one relocation applied to a small code buffer.
type Case struct {
	Name string

	// Code is the section before relocation, located at PC.
	Code []byte
	PC   uint64
	// PLTBase is the address of PLT slot 0.
	PLTBase uint64

	Rec reloc.Record

	// Want is the section after relocation. If WantErr is non-zero,
	// the section must be unchanged and Want is ignored.
	Want    []byte
	WantErr reloc.Kind
}

// Run applies each case with l and checks the result.
func Run(t *testing.T, l *reloc.Linker, cases []Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			data := append([]byte(nil), c.Code...)
			err := l.Apply(reloc.View{Base: c.PC, Data: data}, c.Rec, c.PLTBase)
			if c.WantErr != 0 {
				if !errors.Is(err, c.WantErr) {
					t.Fatalf("want %v error, got %v", c.WantErr, err)
				}
				if !bytes.Equal(data, c.Code) {
					t.Fatalf("failed relocation modified section:\nbefore % x\nafter  % x", c.Code, data)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(data, c.Want) {
				t.Fatalf("want % x\ngot  % x", c.Want, data)
			}
		})
	}
}

// WantKind fails t unless err matches kind.
func WantKind(t testing.TB, err error, kind reloc.Kind) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("want %v error, got %v", kind, err)
	}
}
