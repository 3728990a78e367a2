// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/prism-ml/prism/internal/backend/cpu"
	"github.com/prism-ml/prism/internal/parallel"
	"github.com/prism-ml/prism/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of all tensor operations.
// Large matrix products are split across a goroutine pool; everything else
// runs sequentially.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Config controls how the backend parallelizes matrix products.
type Config = parallel.Config

// DefaultConfig returns the parallelism defaults New uses, derived from
// the machine's CPU count.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/prism-ml/prism/backend/cpu"
//	    "github.com/prism-ml/prism/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    _ = x
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallel configuration.
// Useful for benchmarks and for forcing deterministic sequential execution.
//
// Example:
//
//	backend := cpu.NewWithConfig(cpu.Config{Enabled: false})
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
