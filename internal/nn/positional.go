package nn

import (
	"fmt"
	"math"

	"github.com/prism-ml/prism/internal/tensor"
)

// SinusoidalPositionalEncoding implements fixed sinusoidal positional
// encodings.
//
// This is the original positional encoding from "Attention is All You Need"
// (Vaswani et al., 2017). Sine and cosine functions at geometrically spaced
// frequencies encode the position of each token.
//
// Mathematical formulation:
//
//	PE(pos, 2i)   = sin(pos / 10000^(2i/d))
//	PE(pos, 2i+1) = cos(pos / 10000^(2i/d))
//
// Where:
//   - pos is the position (0 to max_len-1)
//   - i is the dimension pair index (0 to d/2-1)
//   - d is the model dimension
//
// The encodings are fixed (not learned). For any fixed offset k, PE(pos+k)
// is a linear function of PE(pos), which lets the model attend by relative
// position.
//
// Example:
//
//	pe := nn.NewSinusoidalPositionalEncoding(512, 256, backend)
//	positions := pe.Forward(10)  // encodings for the first 10 positions
//	// Shape: [1, 10, 256]
type SinusoidalPositionalEncoding[B tensor.Backend] struct {
	Encoding *tensor.Tensor[float32, B] // [max_len, dim] pre-computed encodings
	MaxLen   int                        // Maximum sequence length
	Dim      int                        // Embedding dimension
	backend  B
}

// NewSinusoidalPositionalEncoding pre-computes positional encodings for all
// positions up to maxLen.
//
// Parameters:
//   - maxLen: Maximum sequence length to pre-compute
//   - dim: Embedding dimension (typically the model dimension)
//   - backend: Computation backend
//
// The angles are computed in float64 and stored as float32.
func NewSinusoidalPositionalEncoding[B tensor.Backend](maxLen, dim int, backend B) *SinusoidalPositionalEncoding[B] {
	if maxLen <= 0 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: maxLen must be positive, got %d", maxLen))
	}
	if dim <= 0 {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: dim must be positive, got %d", dim))
	}

	encodings := make([]float32, maxLen*dim)

	for pos := 0; pos < maxLen; pos++ {
		for i := 0; i < dim; i++ {
			// angle = pos / 10000^(2i/dim), with i the pair index
			angle := float64(pos) / math.Pow(10000.0, float64(2*(i/2))/float64(dim))

			idx := pos*dim + i
			if i%2 == 0 {
				encodings[idx] = float32(math.Sin(angle))
			} else {
				encodings[idx] = float32(math.Cos(angle))
			}
		}
	}

	encoding, err := tensor.FromSlice[float32, B](encodings, tensor.Shape{maxLen, dim}, backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create encoding tensor: %v", err))
	}

	return &SinusoidalPositionalEncoding[B]{
		Encoding: encoding,
		MaxLen:   maxLen,
		Dim:      dim,
		backend:  backend,
	}
}

// Forward returns positional encodings for the specified sequence length.
//
// Parameters:
//   - seqLen: Length of the sequence (must be <= MaxLen)
//
// Returns:
//   - Positional encodings with shape [1, seqLen, dim]. The batch dimension
//     is 1 for broadcasting to any batch size.
//
// Example:
//
//	pe := nn.NewSinusoidalPositionalEncoding(512, 256, backend)
//	encodings := pe.Forward(100)  // [1, 100, 256]
//
//	// Add to token embeddings
//	embeddings := tokenEmbed.Forward(tokens)  // [batch, 100, 256]
//	embeddings = embeddings.Add(encodings)    // Broadcast over batch
//
// Panics if seqLen > MaxLen.
func (s *SinusoidalPositionalEncoding[B]) Forward(seqLen int) *tensor.Tensor[float32, B] {
	if seqLen > s.MaxLen {
		panic(fmt.Sprintf("SinusoidalPositionalEncoding: seqLen %d exceeds MaxLen %d", seqLen, s.MaxLen))
	}

	// The first seqLen rows are a contiguous prefix of the pre-computed table.
	encData := s.Encoding.Data()
	seqData := make([]float32, seqLen*s.Dim)
	copy(seqData, encData[:seqLen*s.Dim])

	seqEnc, err := tensor.FromSlice[float32, B](seqData, tensor.Shape{1, seqLen, s.Dim}, s.backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create sequence encoding: %v", err))
	}

	return seqEnc
}

// LearnedPositionalEmbedding implements learned positional embeddings.
//
// Unlike fixed sinusoidal encodings, these embeddings are trained
// parameters, the approach used by GPT-2 and BERT.
//
// Architecture:
//   - Embedding matrix: [MaxLen, Dim] learned parameters
//   - Forward: returns embeddings for positions [0, seqLen)
//
// The embeddings are initialized from a standard normal distribution.
//
// Example:
//
//	pe := nn.NewLearnedPositionalEmbedding(512, 256, backend)
//	positions := pe.Forward(100)
//	// Shape: [1, 100, 256]
type LearnedPositionalEmbedding[B tensor.Backend] struct {
	Embedding *Embedding[B] // Embedding layer for position indices
	MaxLen    int           // Maximum sequence length
	Dim       int           // Embedding dimension
	backend   B
}

// NewLearnedPositionalEmbedding creates a new LearnedPositionalEmbedding
// layer with randomly initialized embeddings.
//
// Parameters:
//   - maxLen: Maximum sequence length (number of position embeddings)
//   - dim: Embedding dimension (typically the model dimension)
//   - backend: Computation backend
func NewLearnedPositionalEmbedding[B tensor.Backend](maxLen, dim int, backend B) *LearnedPositionalEmbedding[B] {
	if maxLen <= 0 {
		panic(fmt.Sprintf("LearnedPositionalEmbedding: maxLen must be positive, got %d", maxLen))
	}
	if dim <= 0 {
		panic(fmt.Sprintf("LearnedPositionalEmbedding: dim must be positive, got %d", dim))
	}

	return &LearnedPositionalEmbedding[B]{
		Embedding: NewEmbedding[B](maxLen, dim, backend),
		MaxLen:    maxLen,
		Dim:       dim,
		backend:   backend,
	}
}

// Forward returns learned position embeddings for the specified sequence
// length.
//
// Parameters:
//   - seqLen: Length of the sequence (must be <= MaxLen)
//
// Returns:
//   - Position embeddings with shape [1, seqLen, dim]. The batch dimension
//     is 1 for broadcasting to any batch size.
//
// Panics if seqLen > MaxLen.
func (l *LearnedPositionalEmbedding[B]) Forward(seqLen int) *tensor.Tensor[float32, B] {
	if seqLen > l.MaxLen {
		panic(fmt.Sprintf("LearnedPositionalEmbedding: seqLen %d exceeds MaxLen %d", seqLen, l.MaxLen))
	}

	// Position indices [0, 1, ..., seqLen-1].
	// seqLen is bounded by MaxLen, safe for int32.
	indices := tensor.Arange[int32](0, int32(seqLen), l.backend) //nolint:gosec // G115: seqLen bounded by MaxLen.

	// [seqLen, dim] -> [1, seqLen, dim]
	embeddings := l.Embedding.Forward(indices)
	return embeddings.Reshape(1, seqLen, l.Dim)
}

// Parameters returns the trainable parameters (learned embeddings).
func (l *LearnedPositionalEmbedding[B]) Parameters() []*Parameter[B] {
	return l.Embedding.Parameters()
}

// StateDict returns the position embedding weight.
func (l *LearnedPositionalEmbedding[B]) StateDict() map[string]*tensor.RawTensor {
	return l.Embedding.StateDict()
}

// LoadStateDict loads the position embedding weight.
func (l *LearnedPositionalEmbedding[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return l.Embedding.LoadStateDict(stateDict)
}

// ALiBi implements Attention with Linear Biases.
//
// ALiBi adds a linear bias to attention scores based on the distance
// between query and key positions, instead of adding positional information
// to the embeddings. Used by BLOOM and MPT.
//
//	attention_scores = Q @ K^T + bias
//
// Where bias[i,j] = -slope * |i - j|, and each attention head has its own
// slope drawn from a geometric sequence:
//
//	slopes = [2^(-8/n), 2^(-16/n), ..., 2^(-8)]  for n heads
//
// This allows extrapolation to sequences longer than seen during training.
//
// Example:
//
//	alibi := nn.NewALiBi(8, backend)  // 8 attention heads
//	bias := alibi.GetBias(128)        // [1, 8, 128, 128]
//
//	scores := Q.BatchMatMul(kT)  // [batch, 8, seq, seq]
//	scores = scores.Add(bias)
//	weights := scores.Softmax(-1)
type ALiBi[B tensor.Backend] struct {
	NumHeads int       // Number of attention heads
	Slopes   []float32 // Slope for each head (geometric sequence)
	backend  B
}

// NewALiBi creates a new ALiBi bias generator with pre-computed slopes.
//
// For n heads: slopes = [2^(-8/n * i) for i in 1..n]
//
// Example slopes for 8 heads:
//
//	[0.5, 0.25, 0.125, 0.0625, 0.03125, 0.015625, 0.0078125, 0.00390625]
func NewALiBi[B tensor.Backend](numHeads int, backend B) *ALiBi[B] {
	if numHeads <= 0 {
		panic(fmt.Sprintf("ALiBi: numHeads must be positive, got %d", numHeads))
	}

	slopes := make([]float32, numHeads)
	ratio := math.Pow(2, -8.0/float64(numHeads))

	for i := 0; i < numHeads; i++ {
		// slope_i = 2^(-8/n * (i+1))
		slopes[i] = float32(math.Pow(ratio, float64(i+1)))
	}

	return &ALiBi[B]{
		NumHeads: numHeads,
		Slopes:   slopes,
		backend:  backend,
	}
}

// GetBias returns the ALiBi bias matrix for the specified sequence length.
//
// The bias has shape [1, num_heads, seq_len, seq_len], where:
//   - bias[0, h, i, j] = -slopes[h] * |i - j|
//
// The leading dimension is 1 for broadcasting across the batch.
//
// Example:
//
//	alibi := nn.NewALiBi(8, backend)
//	bias := alibi.GetBias(64)  // [1, 8, 64, 64]
func (a *ALiBi[B]) GetBias(seqLen int) *tensor.Tensor[float32, B] {
	if seqLen <= 0 {
		panic(fmt.Sprintf("ALiBi: seqLen must be positive, got %d", seqLen))
	}

	biasData := make([]float32, a.NumHeads*seqLen*seqLen)

	for h := 0; h < a.NumHeads; h++ {
		slope := a.Slopes[h]
		for i := 0; i < seqLen; i++ {
			for j := 0; j < seqLen; j++ {
				distance := float32(abs(i - j))
				idx := h*seqLen*seqLen + i*seqLen + j
				biasData[idx] = -slope * distance
			}
		}
	}

	bias, err := tensor.FromSlice[float32, B](biasData, tensor.Shape{1, a.NumHeads, seqLen, seqLen}, a.backend)
	if err != nil {
		panic(fmt.Sprintf("failed to create bias tensor: %v", err))
	}

	return bias
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
