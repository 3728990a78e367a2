package nn

import (
	"math"

	"github.com/prism-ml/prism/internal/parallel"
	"github.com/prism-ml/prism/internal/tensor"
)

// FlashAttentionConfig configures the Flash Attention module.
type FlashAttentionConfig struct {
	NumHeads   int             // Number of attention heads.
	HeadDim    int             // Dimension per head.
	CausalMask bool            // Whether to use causal (autoregressive) masking.
	BlockSize  int             // Tile size for blocked computation (default: 64).
	Parallel   parallel.Config // Worker pool settings; zero value selects defaults.
}

// FlashAttention implements the Flash Attention 2 algorithm on CPU.
//
// Memory complexity: O(N) instead of O(N²) for standard attention.
//
// Flash Attention achieves O(N) memory by:
//  1. Tiling the computation into blocks (size B)
//  2. Processing Q positions sequentially
//  3. For each Q position, iterating over K,V blocks
//  4. Using online softmax to accumulate results incrementally
//  5. Never materializing the full N×N attention matrix
//
// Because the attention matrix is never formed, this path cannot return
// attention weights. Use ScaledDotProductAttention when weights are needed
// (e.g. for visualization).
//
// Reference: "Flash Attention 2: Faster Attention with Better Parallelism"
// Dao et al., 2023 (https://arxiv.org/abs/2307.08691)
type FlashAttention[B tensor.Backend] struct {
	config  FlashAttentionConfig
	backend B
	scale   float32 // 1/sqrt(headDim)
}

// NewFlashAttention creates a new Flash Attention module.
//
// Example:
//
//	config := nn.FlashAttentionConfig{
//	    NumHeads:   8,
//	    HeadDim:    64,
//	    CausalMask: false,
//	    BlockSize:  64,
//	}
//	fa := nn.NewFlashAttention(config, backend)
func NewFlashAttention[B tensor.Backend](
	config FlashAttentionConfig,
	backend B,
) *FlashAttention[B] {
	if config.BlockSize == 0 {
		config.BlockSize = 64
	}
	if config.Parallel.NumWorkers == 0 {
		config.Parallel = parallel.DefaultConfig()
	}
	// One (batch, head) pair is already a large work unit.
	config.Parallel.MinChunkSize = 1

	scale := float32(1.0 / math.Sqrt(float64(config.HeadDim)))

	return &FlashAttention[B]{
		config:  config,
		backend: backend,
		scale:   scale,
	}
}

// Forward computes attention output using the tiled Flash Attention
// algorithm:
//  1. For each query position:
//  2. Initialize an online softmax accumulator
//  3. For each key/value block (Kj, Vj):
//  4. Compute scores Sij = Qi @ Kj^T * scale
//  5. Apply causal mask if configured
//  6. Update online softmax with (Sij, Vj)
//  7. Normalize the accumulated output
//
// (batch, head) pairs are processed in parallel.
//
// Parameters:
//   - q: Query tensor [batch, seqLen, numHeads, headDim]
//   - k: Key tensor [batch, kvLen, numHeads, headDim]
//   - v: Value tensor [batch, kvLen, numHeads, headDim]
//
// Returns:
//   - Output tensor [batch, seqLen, numHeads, headDim]
//
// Example:
//
//	Q := tensor.Randn[float32](tensor.Shape{2, 128, 8, 64}, backend)
//	K := tensor.Randn[float32](tensor.Shape{2, 128, 8, 64}, backend)
//	V := tensor.Randn[float32](tensor.Shape{2, 128, 8, 64}, backend)
//	output := fa.Forward(Q, K, V)
func (fa *FlashAttention[B]) Forward(
	q, k, v *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	if len(q.Shape()) != 4 || len(k.Shape()) != 4 || len(v.Shape()) != 4 {
		panic("FlashAttention: Q, K, V must be 4D [batch, seq, numHeads, headDim]")
	}

	batch := q.Shape()[0]
	seqLen := q.Shape()[1]
	kvLen := k.Shape()[1]
	numHeads := q.Shape()[2]
	headDim := q.Shape()[3]

	if numHeads != fa.config.NumHeads || headDim != fa.config.HeadDim {
		panic("FlashAttention: numHeads or headDim mismatch with config")
	}

	outputData := flashAttentionCPU(
		q.Data(), k.Data(), v.Data(),
		batch, seqLen, kvLen, numHeads, headDim,
		fa.scale,
		fa.config.CausalMask,
		fa.config.BlockSize,
		fa.config.Parallel,
	)

	output, err := tensor.FromSlice(
		outputData,
		tensor.Shape{batch, seqLen, numHeads, headDim},
		fa.backend,
	)
	if err != nil {
		panic("FlashAttention: failed to create output tensor: " + err.Error())
	}

	return output
}

// FlashDims holds dimension parameters for flash attention computation.
//
// Pre-computed base offsets and strides enable bounds check elimination
// through slice pre-slicing.
type FlashDims struct {
	HeadDim   int // Dimension per head.
	KVLen     int // Length of key/value sequence.
	QBase     int // Base offset for Q in flattened array.
	QStride   int // Stride between consecutive Q positions.
	KBase     int // Base offset for K in flattened array.
	KStride   int // Stride between consecutive K positions.
	VBase     int // Base offset for V in flattened array.
	VStride   int // Stride between consecutive V positions.
	OutBase   int // Base offset for output in flattened array.
	OutStride int // Stride between consecutive output positions.
}

// FlashConfig holds configuration for the flash attention inner loops.
type FlashConfig struct {
	Scale     float32 // Attention scale factor (1/sqrt(headDim)).
	Causal    bool    // Whether to apply causal masking.
	BlockSize int     // Tile size for blocked computation.
}

// flashAttentionScoreBlock computes Q[i] @ K[block]^T attention scores.
//
// Uses pre-slicing to eliminate bounds checks in the dot product loop.
func flashAttentionScoreBlock(
	scores []float32,
	q []float32,
	k []float32,
	kBase, kStride int,
	kvStart, kvBlockSize int,
	headDim int,
	scale float32,
	causal bool,
	queryPos int,
) {
	negInf := float32(math.Inf(-1))

	for kvIdx := 0; kvIdx < kvBlockSize; kvIdx++ {
		j := kvStart + kvIdx

		// Future positions get -inf under the causal mask.
		if causal && j > queryPos {
			scores[kvIdx] = negInf
			continue
		}

		kOffset := kBase + j*kStride
		kVec := k[kOffset : kOffset+headDim]

		var score float32
		for d := 0; d < headDim; d++ {
			score += q[d] * kVec[d]
		}
		scores[kvIdx] = score * scale
	}
}

// flashAttentionExtractValues copies one V block into a contiguous buffer.
func flashAttentionExtractValues(
	values []float32,
	v []float32,
	vBase, vStride int,
	kvStart, kvBlockSize int,
	headDim int,
) {
	for kvIdx := 0; kvIdx < kvBlockSize; kvIdx++ {
		j := kvStart + kvIdx

		vOffset := vBase + j*vStride
		vVec := v[vOffset : vOffset+headDim]

		outOffset := kvIdx * headDim
		copy(values[outOffset:outOffset+headDim], vVec)
	}
}

// flashAttentionProcessQuery runs the tiled algorithm for a single query
// position: iterate over KV blocks, compute scores, extract values, feed
// the online softmax, then normalize into the output buffer.
func flashAttentionProcessQuery(
	output []float32,
	q, k, v []float32,
	queryIdx int,
	dims FlashDims,
	config FlashConfig,
	softmax *OnlineSoftmax,
	scores, values []float32,
) {
	softmax.Reset()

	qOffset := dims.QBase + queryIdx*dims.QStride
	qVec := q[qOffset : qOffset+dims.HeadDim]

	for kvStart := 0; kvStart < dims.KVLen; kvStart += config.BlockSize {
		kvEnd := min(kvStart+config.BlockSize, dims.KVLen)
		kvBlockSize := kvEnd - kvStart

		flashAttentionScoreBlock(
			scores[:kvBlockSize], qVec, k,
			dims.KBase, dims.KStride,
			kvStart, kvBlockSize, dims.HeadDim,
			config.Scale, config.Causal, queryIdx,
		)

		flashAttentionExtractValues(
			values[:kvBlockSize*dims.HeadDim], v,
			dims.VBase, dims.VStride,
			kvStart, kvBlockSize, dims.HeadDim,
		)

		softmax.Update(scores[:kvBlockSize], values[:kvBlockSize*dims.HeadDim])
	}

	result := softmax.Normalize()
	outOffset := dims.OutBase + queryIdx*dims.OutStride
	copy(output[outOffset:outOffset+dims.HeadDim], result)
}

// flashAttentionCPU is the CPU implementation.
//
// Uses tiled computation with online softmax to achieve O(N) memory.
// Each (batch, head) pair is an independent work unit; the block buffers
// and the accumulator are reused across the queries of one unit.
//
// Parameters:
//   - q: [batch * seqLen * numHeads * headDim] flattened query.
//   - k: [batch * kvLen * numHeads * headDim] flattened key.
//   - v: [batch * kvLen * numHeads * headDim] flattened value.
//   - batch, seqLen, kvLen, numHeads, headDim: Shape parameters.
//   - scale: 1/sqrt(headDim) scaling factor.
//   - causal: Whether to apply causal masking.
//   - blockSize: Tile size for blocked computation.
//   - par: Worker pool settings.
//
// Returns:
//   - []float32: [batch * seqLen * numHeads * headDim] flattened output.
func flashAttentionCPU(
	q, k, v []float32,
	batch, seqLen, kvLen, numHeads, headDim int,
	scale float32,
	causal bool,
	blockSize int,
	par parallel.Config,
) []float32 {
	output := make([]float32, batch*seqLen*numHeads*headDim)

	config := FlashConfig{
		Scale:     scale,
		Causal:    causal,
		BlockSize: blockSize,
	}

	qStride := numHeads * headDim
	kvStride := numHeads * headDim

	parallel.ForBatch(batch, numHeads, func(b, h int) {
		dims := FlashDims{
			HeadDim:   headDim,
			KVLen:     kvLen,
			QBase:     b*seqLen*numHeads*headDim + h*headDim,
			QStride:   qStride,
			KBase:     b*kvLen*numHeads*headDim + h*headDim,
			KStride:   kvStride,
			VBase:     b*kvLen*numHeads*headDim + h*headDim,
			VStride:   kvStride,
			OutBase:   b*seqLen*numHeads*headDim + h*headDim,
			OutStride: qStride,
		}

		softmax := NewOnlineSoftmax(headDim)
		scores := make([]float32, blockSize)
		values := make([]float32, blockSize*headDim)

		for qIdx := 0; qIdx < seqLen; qIdx++ {
			flashAttentionProcessQuery(output, q, k, v, qIdx, dims, config, softmax, scores, values)
		}
	}, par)

	return output
}
