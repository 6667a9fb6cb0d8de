// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"fmt"
	"strings"
)

// Kind classifies relocation failures. Every Kind is fatal to the load
// of the module. A Kind is itself an error, so callers can test for a
// kind with errors.Is(err, reloc.OutOfRange).
type Kind uint8

const (
	_ Kind = iota

	// OffsetOutOfBounds means the relocation site does not lie
	// entirely within its section.
	OffsetOutOfBounds
	// OutOfRange means the computed value does not fit the
	// relocation's field.
	OutOfRange
	// Misaligned means a computed branch target or scaled offset has
	// nonzero low bits.
	Misaligned
	// UnsupportedType means the backend does not know the relocation
	// type.
	UnsupportedType
	// UnsupportedAddend means the combination of addend and target is
	// not allowed by the backend, including External targets on a
	// backend without a PLT.
	UnsupportedAddend
	// BadSymbol means the relocation has no target or names a symbol
	// map index that does not exist.
	BadSymbol
)

var kindNames = [...]string{
	OffsetOutOfBounds: "offset out of bounds",
	OutOfRange:        "relocation out of range",
	Misaligned:        "misaligned target",
	UnsupportedType:   "unsupported relocation type",
	UnsupportedAddend: "unsupported addend policy",
	BadSymbol:         "invalid symbol reference",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Error() string {
	return k.String()
}

// An Error describes the failure of one relocation.
type Error struct {
	Kind Kind
	// Type is the relocation type and Name its name, if known.
	Type Type
	Name string
	// Offset is the relocation offset within its section.
	Offset uint64

	// Value is the computed value that failed a range or alignment
	// check.
	Value int64
	// Min and Max bound the accepted values for OutOfRange.
	Min, Max int64
	// Align is the required alignment for Misaligned.
	Align int64

	// Detail is additional text for kinds without numeric context.
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Name != "" {
		b.WriteString(e.Name)
	} else {
		fmt.Fprintf(&b, "relocation type %d", e.Type)
	}
	fmt.Fprintf(&b, " at offset %#x: %s", e.Offset, e.Kind)
	switch e.Kind {
	case OutOfRange:
		fmt.Fprintf(&b, ": value %s not in [%s, %s]", hex(e.Value), hex(e.Min), hex(e.Max))
	case Misaligned:
		fmt.Fprintf(&b, ": value %s is not a multiple of %d", hex(e.Value), e.Align)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is reports whether target is e's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func hex(v int64) string {
	if v < 0 {
		return fmt.Sprintf("-%#x", uint64(-v))
	}
	return fmt.Sprintf("%#x", v)
}

// A RecordError is returned by Linker.Relocate for the first record that
// failed.
type RecordError struct {
	// Section is the name of the section being relocated.
	Section string
	// Index is the position of the failing record in its section's
	// record list.
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("section %s: relocation %d: %v", e.Section, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
