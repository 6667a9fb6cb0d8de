// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package codemem

import "errors"

var errUnsupported = errors.New("executable memory is not supported on this platform")

func pageSize() int { return 4096 }

func mapRW(n int) ([]byte, error) { return nil, errUnsupported }

func protectRX(mem []byte) error { return errUnsupported }

func unmap(mem []byte) error { return errUnsupported }
