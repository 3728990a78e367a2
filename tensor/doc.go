// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Prism encoder toolkit.
//
// # Overview
//
// Tensors are the fundamental data structure in Prism. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Copy-on-write buffers with reference counting
//   - A Backend interface carrying exactly the operations a Transformer
//     encoder needs
//
// # Basic Usage
//
//	import (
//	    "github.com/prism-ml/prism/tensor"
//	    "github.com/prism-ml/prism/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    scores := x.MatMul(y.T()).Softmax(-1)
//	    _ = z
//	    _ = scores
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (weights, activations, attention scores)
//   - int32, int64 (token ids and indices)
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// BroadcastShapes computes the result shape without running the op, which
// attention masking uses to validate mask shapes up front.
//
// # Memory Management
//
// Tensor buffers are reference-counted and copy-on-write: Clone is cheap
// until one of the copies is mutated. Release drops a reference explicitly
// when a tensor's lifetime is shorter than its scope.
//
// # Available Operations
//
// Scalar operations:
//
//	y := x.MulScalar(2.0)    // Multiply by scalar
//	y := x.AddScalar(1.0)    // Add scalar
//	y := x.SubScalar(0.5)    // Subtract scalar
//	y := x.DivScalar(2.0)    // Divide by scalar
//
// Math operations:
//
//	y := x.Exp()             // Exponential
//	y := x.Log()             // Natural logarithm
//	y := x.Sqrt()            // Square root
//	y := x.Rsqrt()           // Reciprocal square root
//
// Shape operations:
//
//	y := x.Reshape(6, 4)     // Same data, new shape
//	y := x.Transpose(0, 2, 1) // Permute axes
//	y := x.Unsqueeze(0)      // Insert size-1 axis
//	y := x.Squeeze(0)        // Drop size-1 axis
//
// Reductions:
//
//	s := x.Sum()             // Scalar sum
//	s := x.SumDim(-1, true)  // Sum along axis, keep dims
//	m := x.MeanDim(-1, false)
//	i := x.Argmax(-1)        // Tensor[int32, B] of indices
//
// # Printing
//
// Summary gives a one-line shape/dtype/statistics description and Preview
// renders values with edge-item elision, so walkthroughs can show what
// flows between encoder stages without drowning the terminal.
//
// See method documentation for the full list of operations.
package tensor
