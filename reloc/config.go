// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"github.com/xyproto/env/v2"
	"go.uber.org/zap"
)

// Config controls the construction of a Linker.
type Config struct {
	// Features selects the optional helpers in the symbol map. New
	// rejects a map that does not match them; Bind builds one that does.
	Features Features

	// Trace enables a Debug log entry for every applied relocation.
	Trace bool

	// Logger receives relocation failures and trace entries. If nil,
	// nothing is logged.
	Logger *zap.Logger
}

// ConfigFromEnv returns a Config populated from the environment:
//
//	AOTRELOC_BULK_MEMORY  include the bulk memory helpers
//	AOTRELOC_THREADS      include the atomic wait and notify helpers
//	AOTRELOC_TRACE        log every applied relocation
func ConfigFromEnv() Config {
	return Config{
		Features: Features{
			BulkMemory: env.Bool("AOTRELOC_BULK_MEMORY"),
			Threads:    env.Bool("AOTRELOC_THREADS"),
		},
		Trace: env.Bool("AOTRELOC_TRACE"),
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
