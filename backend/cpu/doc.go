// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Cache-blocked matrix multiplication
//   - Worker-pool parallelism for batched attention products
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//
// # Basic Usage
//
//	import (
//	    "github.com/prism-ml/prism/backend/cpu"
//	    "github.com/prism-ml/prism/nn"
//	    "github.com/prism-ml/prism/tensor"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with neural network layers
//	    proj := nn.NewLinear(512, 512, backend)
//	    _, _ = z, proj
//	}
//
// # Determinism
//
// New derives worker counts from the machine. For bit-identical runs
// across machines, construct the backend with parallelism disabled:
//
//	backend := cpu.NewWithConfig(cpu.Config{Enabled: false})
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
