// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding, LayerNorm, RMSNorm, Dropout
//   - Activations: ReLU, GELU, SiLU, Sigmoid, Tanh
//   - Feed-forward: FFN, SwiGLUFFN
//   - Attention: ScaledDotProductAttention, MultiHeadAttention, FlashAttention
//   - Positional encodings: Sinusoidal, Learned, ALiBi
//   - Utilities: Module interface, Parameter, Save/Load
//   - Initialization: Xavier, Zeros, Ones, Randn
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
//	    backend := cpu.New()
//
//	    // Token embeddings plus positional encoding
//	    embed := nn.NewEmbedding(10000, 512, backend)
//	    pe := nn.NewSinusoidalPositionalEncoding(512, 512, backend)
//
//	    ids, _ := tensor.FromSlice([]int32{3, 14, 15}, tensor.Shape{1, 3}, backend)
//	    x := embed.Forward(ids).MulScalar(float32(22.627417)) // sqrt(512)
//	    x = x.Add(pe.Forward(3))
//	    _ = x
//	}
//
// # Attention
//
// Scaled dot-product attention returns both the attended values and the
// attention weights, so the weights can be inspected or plotted:
//
//	output, weights := nn.ScaledDotProductAttention(Q, K, V, mask, 0)
//
// MultiHeadAttention wraps the projection layers around it:
//
//	mha := nn.NewMultiHeadAttention(512, 8, backend)
//	output := mha.Forward(x, x, x, nil)  // self-attention
//
// FlashAttention trades the weight matrix for O(N) memory; use it when
// sequences are long and weights are not needed.
//
// # Masks
//
// Masks are additive: 0 keeps a position, a large negative value removes
// it. CausalMask hides future positions, PaddingMask hides pad tokens:
//
//	mask := nn.PaddingMask(ids, 0)
//	output, weights := nn.ScaledDotProductAttention(Q, K, V, mask, 0)
//
// # Persistence
//
// Modules whose parameters can be exported implement StateModule, and
// Save/Load move them to and from .prism files:
//
//	err := nn.Save(mha, "attn.prism", "MultiHeadAttention", nil)
//	header, err := nn.Load("attn.prism", backend, mha)
//
// # Parameter Management
//
// Access module parameters by name:
//
//	params := mha.Parameters()
//	for _, param := range params {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
package nn
