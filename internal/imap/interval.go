// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imap

import "fmt"

// An Interval is the half-open address range [Low, High).
type Interval struct {
	Low, High uint64
}

func (i Interval) String() string {
	if i.Empty() {
		return "∅"
	}
	return fmt.Sprintf("[%#x,%#x)", i.Low, i.High)
}

// Empty reports whether i contains no addresses.
func (i Interval) Empty() bool {
	return i.High <= i.Low
}

// Contains reports whether addr is in i.
func (i Interval) Contains(addr uint64) bool {
	return i.Low <= addr && addr < i.High
}

// Size returns the number of addresses in i.
func (i Interval) Size() uint64 {
	if i.Empty() {
		return 0
	}
	return i.High - i.Low
}
