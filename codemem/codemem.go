// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codemem manages the memory that relocated AOT code runs from.
//
// A Block starts out writable so the code can be copied in and linked.
// Seal then makes it read-only and executable. The relocation engine
// itself never changes memory protection; this is the loader's side of
// that contract.
package codemem

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/bytecodealliance/wasm-micro-runtime-sub008/reloc"
)

// A Block is an anonymous page-aligned memory mapping.
type Block struct {
	mem    []byte
	sealed bool
}

// Alloc maps at least size bytes of writable memory.
func Alloc(size int) (*Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("codemem: invalid size %d", size)
	}
	ps := pageSize()
	n := (size + ps - 1) &^ (ps - 1)
	mem, err := mapRW(n)
	if err != nil {
		return nil, fmt.Errorf("codemem: mapping %d bytes: %w", n, err)
	}
	return &Block{mem: mem}, nil
}

// Bytes returns the mapped memory. After Seal, writing to it faults.
func (b *Block) Bytes() []byte {
	return b.mem
}

// Addr returns the address of the first byte of b.
func (b *Block) Addr() uint64 {
	if len(b.mem) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b.mem[0])))
}

// Sealed reports whether b has been made executable.
func (b *Block) Sealed() bool {
	return b.sealed
}

// NewRegion returns a Region of l covering all of b, with l's PLT at the
// end of the mapping.
func (b *Block) NewRegion(l *reloc.Linker) (*reloc.Region, error) {
	if b.mem == nil {
		return nil, errors.New("codemem: block is freed")
	}
	if b.sealed {
		return nil, errors.New("codemem: block is sealed")
	}
	return l.NewRegion(b.Addr(), b.mem)
}

// Seal makes b read-only and executable.
//
// On architectures whose Arch.ICacheSync is set, the instruction cache
// must also be synchronized before the code runs.
func (b *Block) Seal() error {
	if b.mem == nil {
		return errors.New("codemem: block is freed")
	}
	if b.sealed {
		return nil
	}
	if err := protectRX(b.mem); err != nil {
		return fmt.Errorf("codemem: sealing %d bytes at %#x: %w", len(b.mem), b.Addr(), err)
	}
	b.sealed = true
	return nil
}

// Free unmaps b. Freeing a freed block does nothing.
func (b *Block) Free() error {
	if b.mem == nil {
		return nil
	}
	err := unmap(b.mem)
	b.mem, b.sealed = nil, false
	if err != nil {
		return fmt.Errorf("codemem: unmapping: %w", err)
	}
	return nil
}
