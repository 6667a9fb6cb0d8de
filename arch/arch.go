// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch provides basic descriptions of the CPU architectures that
// AOT modules can be compiled for.
package arch

// An Arch describes a CPU architecture, or one instruction set of an
// architecture that has several (ARM and Thumb).
type Arch struct {
	// Layout is the byte order and word size of this architecture.
	Layout Layout

	// GoArch is the GOARCH value for this architecture.
	GoArch string

	// Family is the canonical target family name, as it appears at the
	// start of a normalized target identifier.
	Family string

	// InstAlign is the alignment, in bytes, required of every branch
	// target.
	InstAlign int

	// PageSize is the granule used by page-relative address
	// materialization (for example ADRP or PCALAU12I).
	PageSize uint64

	// ICacheSync is set if freshly written code must be followed by
	// an instruction-cache invalidation before it is executed. The
	// relocation engine does not perform this itself; it is the job of
	// whoever makes the code executable.
	ICacheSync bool
}

var (
	AMD64 = &Arch{
		Layout: Layout{wordSize: 8}, GoArch: "amd64", Family: "x86_64",
		InstAlign: 1, PageSize: 4096,
	}
	I386 = &Arch{
		Layout: Layout{wordSize: 4}, GoArch: "386", Family: "i386",
		InstAlign: 1, PageSize: 4096,
	}
	ARM64 = &Arch{
		Layout: Layout{wordSize: 8}, GoArch: "arm64", Family: "aarch64",
		InstAlign: 4, PageSize: 4096, ICacheSync: true,
	}
	ARM = &Arch{
		Layout: Layout{wordSize: 4}, GoArch: "arm", Family: "arm",
		InstAlign: 4, PageSize: 4096, ICacheSync: true,
	}
	Thumb = &Arch{
		Layout: Layout{wordSize: 4}, GoArch: "arm", Family: "thumb",
		InstAlign: 2, PageSize: 4096, ICacheSync: true,
	}
	// RISCV64 assumes the C extension, so control transfers only need
	// 2-byte alignment.
	RISCV64 = &Arch{
		Layout: Layout{wordSize: 8}, GoArch: "riscv64", Family: "riscv64",
		InstAlign: 2, PageSize: 4096, ICacheSync: true,
	}
	Loong64 = &Arch{
		Layout: Layout{wordSize: 8}, GoArch: "loong64", Family: "loongarch64",
		InstAlign: 4, PageSize: 4096, ICacheSync: true,
	}
)

// String returns the target family of a.
func (a *Arch) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.Family
}

// Page returns v rounded down to a's page granule.
func (a *Arch) Page(v uint64) uint64 {
	return v &^ (a.PageSize - 1)
}
