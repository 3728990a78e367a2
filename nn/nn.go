// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/tensor"
)

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(512, 2048, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a linear layer without a bias term.
//
// LLaMA-style projections omit the bias.
//
// Example:
//
//	proj := nn.NewLinearNoBias(512, 512, backend)
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearNoBias(inFeatures, outFeatures, backend)
}

// Embedding represents a lookup table mapping token ids to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates a new embedding layer.
//
// Example:
//
//	backend := cpu.New()
//	embed := nn.NewEmbedding[B](50000, 768, backend)  // vocab=50000, dim=768
//	tokenIds, _ := tensor.FromSlice([]int32{1, 5, 10}, tensor.Shape{1, 3}, backend)
//	embeddings := embed.Forward(tokenIds)  // [1, 3, 768]
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewEmbeddingWithWeight creates an embedding layer from an existing weight tensor.
//
// This is useful when loading pre-trained embeddings. The weight must be
// 2D [num_embeddings, embedding_dim].
//
// Example:
//
//	weights := tensor.Randn[float32](tensor.Shape{50000, 768}, backend)
//	embed, err := nn.NewEmbeddingWithWeight(weights, backend)
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B], backend B) (*Embedding[B], error) {
	return nn.NewEmbeddingWithWeight(weight, backend)
}

// LayerNorm represents Layer Normalization.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a new LayerNorm layer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewLayerNorm[B](768, 1e-5, backend)
//	output := norm.Forward(input)  // [..., 768] -> [..., 768]
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// RMSNorm represents Root Mean Square Layer Normalization.
type RMSNorm[B tensor.Backend] = nn.RMSNorm[B]

// NewRMSNorm creates a new RMSNorm layer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewRMSNorm[B](768, 1e-5, backend)
//	output := norm.Forward(input)  // [..., 768] -> [..., 768]
func NewRMSNorm[B tensor.Backend](dModel int, epsilon float32, backend B) *RMSNorm[B] {
	return nn.NewRMSNorm(dModel, epsilon, backend)
}

// Dropout randomly zeroes elements during training and is the identity
// during inference.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer with drop probability p.
//
// The layer starts in inference mode; call SetTraining(true) to activate
// dropping.
//
// Example:
//
//	drop := nn.NewDropout[B](0.1)
//	drop.SetTraining(true)
//	noisy := drop.Forward(x)
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
//
// Example:
//
//	relu := nn.NewReLU[B]()
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// GELU represents the Gaussian Error Linear Unit activation function.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a new GELU activation layer.
//
// Example:
//
//	gelu := nn.NewGELU[B]()
func NewGELU[B tensor.Backend]() *GELU[B] {
	return nn.NewGELU[B]()
}

// SiLU represents the Sigmoid Linear Unit (SiLU/Swish) activation function.
// SiLU(x) = x * sigmoid(x).
type SiLU[B tensor.Backend] = nn.SiLU[B]

// NewSiLU creates a new SiLU activation layer.
//
// Example:
//
//	silu := nn.NewSiLU[B]()
//	output := silu.Forward(input)
func NewSiLU[B tensor.Backend]() *SiLU[B] {
	return nn.NewSiLU[B]()
}

// Sigmoid represents the Sigmoid activation function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new Sigmoid activation layer.
//
// Example:
//
//	sigmoid := nn.NewSigmoid[B]()
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the Tanh activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
//
// Example:
//
//	tanh := nn.NewTanh[B]()
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Feed-Forward Networks

// ActivationKind selects the activation inside an FFN.
type ActivationKind = nn.ActivationKind

// Activation constants for FFN construction.
const (
	ActReLU ActivationKind = nn.ActReLU // original Transformer
	ActGELU ActivationKind = nn.ActGELU // BERT family
	ActSiLU ActivationKind = nn.ActSiLU // LLaMA family
)

// ParseActivation maps a name to an ActivationKind.
// Recognized names: "relu", "gelu", "silu" (and "swish" as an alias).
func ParseActivation(name string) (ActivationKind, error) {
	return nn.ParseActivation(name)
}

// FFN is the position-wise feed-forward network of a Transformer layer:
// two linear projections with an activation between them.
type FFN[B tensor.Backend] = nn.FFN[B]

// NewFFN creates a feed-forward network.
//
// Example:
//
//	ffn := nn.NewFFN[B](512, 2048, nn.ActReLU, backend)
//	out := ffn.Forward(hidden)  // [batch, seq, 512] -> [batch, seq, 512]
func NewFFN[B tensor.Backend](embedDim, ffnDim int, act ActivationKind, backend B) *FFN[B] {
	return nn.NewFFN(embedDim, ffnDim, act, backend)
}

// SwiGLUFFNConfig configures a SwiGLUFFN layer.
type SwiGLUFFNConfig = nn.SwiGLUFFNConfig

// SwiGLUFFN implements a feed-forward network with gated activation,
// as used by LLaMA-family models.
type SwiGLUFFN[B tensor.Backend] = nn.SwiGLUFFN[B]

// NewSwiGLUFFN creates a gated feed-forward network.
//
// Example:
//
//	cfg := nn.SwiGLUFFNConfig{EmbedDim: 4096, FFNDim: 11008}
//	ffn := nn.NewSwiGLUFFN(cfg, backend)
func NewSwiGLUFFN[B tensor.Backend](cfg SwiGLUFFNConfig, backend B) *SwiGLUFFN[B] {
	return nn.NewSwiGLUFFN(cfg, backend)
}

// Initialization functions

// Xavier initializes a tensor using Xavier/Glorot initialization.
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Xavier(512, 2048, tensor.Shape{2048, 512}, backend)
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros initializes a tensor with zeros (for biases).
//
// Example:
//
//	backend := cpu.New()
//	bias := nn.Zeros(tensor.Shape{2048}, backend)
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones initializes a tensor with ones.
//
// Example:
//
//	backend := cpu.New()
//	gain := nn.Ones(tensor.Shape{768}, backend)
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn initializes a tensor with random values from N(0, 1).
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Randn(tensor.Shape{768, 768}, backend)
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}

// Attention Functions

// ScaledDotProductAttention computes attention scores using the scaled dot-product mechanism.
//
// This is the core attention mechanism used in transformers.
//
// Parameters:
//   - query: Query tensor [batch, heads, seq_q, head_dim]
//   - key: Key tensor [batch, heads, seq_k, head_dim]
//   - value: Value tensor [batch, heads, seq_k, head_dim]
//   - mask: Optional additive attention mask broadcastable to
//     [batch, heads, seq_q, seq_k], or nil
//   - scale: Scaling factor (0 for auto-compute as 1/sqrt(head_dim))
//
// Returns:
//   - output: Attended values [batch, heads, seq_q, head_dim]
//   - weights: Attention weights [batch, heads, seq_q, seq_k]
//
// Example:
//
//	Q := tensor.Randn[float32](tensor.Shape{2, 8, 10, 64}, backend)
//	K := tensor.Randn[float32](tensor.Shape{2, 8, 10, 64}, backend)
//	V := tensor.Randn[float32](tensor.Shape{2, 8, 10, 64}, backend)
//	output, weights := nn.ScaledDotProductAttention(Q, K, V, nil, 0)
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return nn.ScaledDotProductAttention(query, key, value, mask, scale)
}

// CausalMask creates a causal (autoregressive) attention mask.
//
// In causal attention, each position can only attend to earlier positions.
//
// Returns a mask tensor where future positions are masked with a large
// negative value. Shape: [1, 1, seq_len, seq_len] (broadcastable to
// [batch, heads, seq, seq]).
//
// Example:
//
//	mask := nn.CausalMask(10, backend)  // [1, 1, 10, 10]
//	output, weights := nn.ScaledDotProductAttention(Q, K, V, mask, 0)
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[float32, B] {
	return nn.CausalMask(seqLen, backend)
}

// PaddingMask builds an additive attention mask that hides padding tokens.
//
// Returns a mask of shape [batch, 1, 1, seq] with 0 at real tokens and a
// large negative value at padding positions.
//
// Example:
//
//	ids, _ := tensor.FromSlice([]int32{5, 9, 3, 0, 0}, tensor.Shape{1, 5}, backend)
//	mask := nn.PaddingMask(ids, 0)  // [1, 1, 1, 5]
func PaddingMask[B tensor.Backend](ids *tensor.Tensor[int32, B], padID int32) *tensor.Tensor[float32, B] {
	return nn.PaddingMask(ids, padID)
}

// MultiHeadAttention represents the multi-head attention mechanism.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates a new multi-head attention module.
//
// Parameters:
//   - embedDim: Total embedding dimension (must be divisible by numHeads)
//   - numHeads: Number of attention heads
//   - backend: Computation backend
//
// Example:
//
//	backend := cpu.New()
//	mha := nn.NewMultiHeadAttention[B](768, 12, backend)  // BERT-base config
//	output := mha.Forward(x, x, x, nil)  // Self-attention
func NewMultiHeadAttention[B tensor.Backend](embedDim, numHeads int, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention[B](embedDim, numHeads, backend)
}

// Flash Attention

// FlashAttentionConfig configures the Flash Attention module.
type FlashAttentionConfig = nn.FlashAttentionConfig

// FlashAttention implements the Flash Attention 2 algorithm on CPU with
// O(N) memory. It does not materialize the attention matrix, so it cannot
// return attention weights; use ScaledDotProductAttention when weights
// are needed (e.g. for visualization).
type FlashAttention[B tensor.Backend] = nn.FlashAttention[B]

// NewFlashAttention creates a new Flash Attention module.
//
// Example:
//
//	config := nn.FlashAttentionConfig{
//	    NumHeads: 8,
//	    HeadDim:  64,
//	}
//	fa := nn.NewFlashAttention(config, backend)
func NewFlashAttention[B tensor.Backend](config FlashAttentionConfig, backend B) *FlashAttention[B] {
	return nn.NewFlashAttention(config, backend)
}

// StandardAttention computes attention on flat float32 slices without
// tensor overhead. It is the reference implementation Flash Attention is
// verified against.
//
// Example:
//
//	output := nn.StandardAttention(q, k, v, 2, 128, 128, 8, 64, 0.125, false)
func StandardAttention(
	q, k, v []float32,
	batch, seqLen, kvLen, numHeads, headDim int,
	scale float32,
	causal bool,
) []float32 {
	return nn.StandardAttention(q, k, v, batch, seqLen, kvLen, numHeads, headDim, scale, causal)
}
