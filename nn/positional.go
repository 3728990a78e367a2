// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/tensor"
)

// Positional Encodings for Transformers

// SinusoidalPositionalEncoding implements fixed sinusoidal positional encodings.
//
// This is the original positional encoding from "Attention is All You Need"
// (Vaswani et al., 2017): even dimensions carry sin, odd dimensions carry
// cos, each pair at a frequency 10000^(-2i/dim).
//
// Example:
//
//	backend := cpu.New()
//	pe := nn.NewSinusoidalPositionalEncoding(512, 256, backend)
//	encodings := pe.Forward(100)  // [1, 100, 256]
//
//	// Add to embeddings
//	embeddings = embeddings.Add(encodings)
type SinusoidalPositionalEncoding[B tensor.Backend] = nn.SinusoidalPositionalEncoding[B]

// NewSinusoidalPositionalEncoding creates a new sinusoidal positional encoding layer.
//
// Pre-computes all positional encodings up to maxLen using sine and cosine functions.
//
// Parameters:
//   - maxLen: Maximum sequence length
//   - dim: Embedding dimension
//   - backend: Computation backend
//
// Example:
//
//	pe := nn.NewSinusoidalPositionalEncoding(512, 256, backend)
func NewSinusoidalPositionalEncoding[B tensor.Backend](maxLen, dim int, backend B) *SinusoidalPositionalEncoding[B] {
	return nn.NewSinusoidalPositionalEncoding(maxLen, dim, backend)
}

// LearnedPositionalEmbedding implements learned positional embeddings.
//
// These embeddings are trainable parameters, the approach used by GPT-2
// and BERT.
//
// Example:
//
//	backend := cpu.New()
//	pe := nn.NewLearnedPositionalEmbedding(512, 256, backend)
//	encodings := pe.Forward(100)  // [1, 100, 256]
//
//	// Inspect parameters
//	params := pe.Parameters()
type LearnedPositionalEmbedding[B tensor.Backend] = nn.LearnedPositionalEmbedding[B]

// NewLearnedPositionalEmbedding creates a new learned positional embedding layer.
//
// The embeddings are initialized from a normal distribution N(0, 1).
//
// Parameters:
//   - maxLen: Maximum sequence length
//   - dim: Embedding dimension
//   - backend: Computation backend
//
// Example:
//
//	pe := nn.NewLearnedPositionalEmbedding(512, 256, backend)
func NewLearnedPositionalEmbedding[B tensor.Backend](maxLen, dim int, backend B) *LearnedPositionalEmbedding[B] {
	return nn.NewLearnedPositionalEmbedding(maxLen, dim, backend)
}

// ALiBi implements Attention with Linear Biases.
//
// ALiBi adds a linear bias to attention scores based on the distance between
// positions instead of modifying the embeddings. Used in BLOOM, MPT, and
// other models. Allows extrapolation to longer sequences.
//
// Example:
//
//	backend := cpu.New()
//	alibi := nn.NewALiBi(8, backend)  // 8 attention heads
//	bias := alibi.GetBias(128)        // [1, 8, 128, 128]
//
//	// In attention:
//	scores := Q.BatchMatMul(kT)
//	scores = scores.Add(bias)
//	weights := scores.Softmax(-1)
type ALiBi[B tensor.Backend] = nn.ALiBi[B]

// NewALiBi creates a new ALiBi bias generator.
//
// Computes slopes for each attention head using a geometric sequence.
//
// Parameters:
//   - numHeads: Number of attention heads
//   - backend: Computation backend
//
// Example:
//
//	alibi := nn.NewALiBi(8, backend)
//	bias := alibi.GetBias(64)  // Get bias for sequence length 64
func NewALiBi[B tensor.Backend](numHeads int, backend B) *ALiBi[B] {
	return nn.NewALiBi(numHeads, backend)
}
