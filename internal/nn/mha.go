package nn

import (
	"fmt"
	"strings"

	"github.com/prism-ml/prism/internal/tensor"
)

// MultiHeadAttention implements the multi-head attention mechanism.
//
// Architecture:
//
//	MHA(Q, K, V) = Concat(head_1, ..., head_h) * W_O
//	head_i = SDPA(Q*W_Q_i, K*W_K_i, V*W_V_i)
//
// All heads are computed in one batched pass: the projections produce
// [batch, seq, embed_dim], which is reshaped to
// [batch, heads, seq, head_dim] so ScaledDotProductAttention runs every
// head at once.
//
// Example:
//
//	backend := cpu.New()
//	mha := nn.NewMultiHeadAttention(768, 12, backend)  // 768 dim, 12 heads
//	output := mha.Forward(x, x, x, nil)     // self-attention
//	output = mha.Forward(q, kv, kv, mask)   // cross-attention
type MultiHeadAttention[B tensor.Backend] struct {
	WQ       *Linear[B] // Query projection [embed_dim, embed_dim]
	WK       *Linear[B] // Key projection [embed_dim, embed_dim]
	WV       *Linear[B] // Value projection [embed_dim, embed_dim]
	WO       *Linear[B] // Output projection [embed_dim, embed_dim]
	NumHeads int
	HeadDim  int
	EmbedDim int
	backend  B
}

// NewMultiHeadAttention creates a new multi-head attention module.
//
// Parameters:
//   - embedDim: Total embedding dimension (must be divisible by numHeads)
//   - numHeads: Number of attention heads
//   - backend: Computation backend
//
// The head dimension is computed as embedDim / numHeads.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(768, 12, backend)
//	// embedDim=768, numHeads=12 -> headDim=64
func NewMultiHeadAttention[B tensor.Backend](
	embedDim, numHeads int,
	backend B,
) *MultiHeadAttention[B] {
	if numHeads <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: num_heads must be positive, got %d", numHeads))
	}
	if embedDim%numHeads != 0 {
		panic(fmt.Sprintf("MultiHeadAttention: embed_dim (%d) must be divisible by num_heads (%d)", embedDim, numHeads))
	}
	headDim := embedDim / numHeads

	return &MultiHeadAttention[B]{
		WQ:       NewLinear[B](embedDim, embedDim, backend),
		WK:       NewLinear[B](embedDim, embedDim, backend),
		WV:       NewLinear[B](embedDim, embedDim, backend),
		WO:       NewLinear[B](embedDim, embedDim, backend),
		NumHeads: numHeads,
		HeadDim:  headDim,
		EmbedDim: embedDim,
		backend:  backend,
	}
}

// Forward computes multi-head attention.
//
// Args:
//   - query: Query tensor [batch, seq_q, embed_dim]
//   - key: Key tensor [batch, seq_k, embed_dim]
//   - value: Value tensor [batch, seq_k, embed_dim]
//   - mask: Optional additive mask broadcastable to [batch, heads, seq_q, seq_k], or nil
//
// Returns:
//   - output: [batch, seq_q, embed_dim]
//
// For self-attention, pass the same tensor for query, key, and value.
// For cross-attention, query differs from key/value.
func (m *MultiHeadAttention[B]) Forward(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	output, _ := m.ForwardWithWeights(query, key, value, mask)
	return output
}

// ForwardWithWeights computes multi-head attention and also returns the
// per-head attention weights for visualization and analysis.
//
// Returns:
//   - output: [batch, seq_q, embed_dim]
//   - weights: [batch, num_heads, seq_q, seq_k]
func (m *MultiHeadAttention[B]) ForwardWithWeights(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	batch := query.Shape()[0]
	seqQ := query.Shape()[1]
	seqK := key.Shape()[1]

	// 1. Project Q, K, V
	q := m.WQ.Forward(query)
	k := m.WK.Forward(key)
	v := m.WV.Forward(value)

	// 2. Split heads: [batch, seq, embed_dim] -> [batch, heads, seq, head_dim]
	q = q.Reshape(batch, seqQ, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
	k = k.Reshape(batch, seqK, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
	v = v.Reshape(batch, seqK, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)

	// 3. Scaled dot-product attention over all heads at once
	attnOut, weights := ScaledDotProductAttention(q, k, v, mask, 0)

	// 4. Merge heads: [batch, heads, seq_q, head_dim] -> [batch, seq_q, embed_dim]
	attnOut = attnOut.Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.EmbedDim)

	// 5. Output projection
	output := m.WO.Forward(attnOut)

	return output, weights
}

// Parameters returns all trainable parameters (WQ, WK, WV, WO weights and biases).
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.WO.Parameters()...)
	return params
}

// StateDict returns the projection parameters with "wq.", "wk.", "wv." and
// "wo." prefixes.
func (m *MultiHeadAttention[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for prefix, layer := range m.projections() {
		for name, raw := range layer.StateDict() {
			stateDict[prefix+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads the four projections from a prefixed state dictionary.
func (m *MultiHeadAttention[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for prefix, layer := range m.projections() {
		sub := make(map[string]*tensor.RawTensor)
		for name, raw := range stateDict {
			if strings.HasPrefix(name, prefix) {
				sub[strings.TrimPrefix(name, prefix)] = raw
			}
		}
		if err := layer.LoadStateDict(sub); err != nil {
			return fmt.Errorf("loading %s: %w", strings.TrimSuffix(prefix, "."), err)
		}
	}
	return nil
}

func (m *MultiHeadAttention[B]) projections() map[string]*Linear[B] {
	return map[string]*Linear[B]{
		"wq.": m.WQ,
		"wk.": m.WK,
		"wv.": m.WV,
		"wo.": m.WO,
	}
}
