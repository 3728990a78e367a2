package nn

import "math"

// OnlineSoftmax computes softmax incrementally without storing all values.
//
// This is the enabler for Flash Attention's O(N) memory use. Instead of
// materializing the full attention row, OnlineSoftmax maintains running
// statistics (max and sum) and accumulates weighted outputs block by block.
//
// Algorithm, per block of scores:
//
//	1. new_max = max(running_max, max(scores))
//	2. scale = exp(old_max - new_max)
//	3. running_sum = scale * running_sum + sum(exp(scores - new_max))
//	4. output = scale * output + exp(scores - new_max) @ values
//	5. running_max = new_max
//
//	After all blocks: output /= running_sum
//
// The rescaling keeps every exponential bounded by 1, so the incremental
// result matches a max-shifted softmax over the whole row.
type OnlineSoftmax struct {
	maxVal  float32   // Running maximum across all blocks.
	sumExp  float32   // Running sum of exp(x - max).
	output  []float32 // Accumulated weighted output [headDim].
	headDim int       // Dimension of each attention head.
}

// NewOnlineSoftmax creates an online softmax accumulator for one query
// vector of the given head dimension.
//
// Example:
//
//	softmax := nn.NewOnlineSoftmax(64) // head_dim=64
//	softmax.Update(scores1, values1)   // first key/value block
//	softmax.Update(scores2, values2)   // second block
//	result := softmax.Normalize()      // final output
func NewOnlineSoftmax(headDim int) *OnlineSoftmax {
	return &OnlineSoftmax{
		maxVal:  float32(math.Inf(-1)),
		sumExp:  0,
		output:  make([]float32, headDim),
		headDim: headDim,
	}
}

// Update processes one block of attention scores and values.
//
// Parameters:
//   - scores: [blockSize] attention scores for this block (QK^T * scale).
//   - values: [blockSize * headDim] V rows for this block, row-major:
//     [v0_0, ..., v0_{headDim-1}, v1_0, ...]
func (o *OnlineSoftmax) Update(scores, values []float32) {
	blockSize := len(scores)
	if len(values) != blockSize*o.headDim {
		panic("OnlineSoftmax.Update: values length must be blockSize * headDim")
	}

	// 1. Maximum within this block
	blockMax := float32(math.Inf(-1))
	for _, score := range scores {
		if score > blockMax {
			blockMax = score
		}
	}

	// 2. New running maximum and correction factor
	oldMax := o.maxVal
	newMax := max(oldMax, blockMax)
	correction := float32(math.Exp(float64(oldMax - newMax)))

	// 3. Rescale previous sum and output
	o.sumExp *= correction
	for i := range o.output {
		o.output[i] *= correction
	}

	// 4. Add this block's contributions
	for i := 0; i < blockSize; i++ {
		expScore := float32(math.Exp(float64(scores[i] - newMax)))
		o.sumExp += expScore

		for j := 0; j < o.headDim; j++ {
			o.output[j] += expScore * values[i*o.headDim+j]
		}
	}

	// 5. Commit running maximum
	o.maxVal = newMax
}

// Normalize returns the final output after all blocks have been processed.
//
// Divides the accumulated output by the sum of exponentials, yielding the
// softmax-weighted sum of values.
func (o *OnlineSoftmax) Normalize() []float32 {
	result := make([]float32, o.headDim)
	for i := range result {
		result[i] = o.output[i] / o.sumExp
	}
	return result
}

// Reset clears the accumulator so it can be reused for the next query,
// avoiding repeated allocations.
//
// Example:
//
//	softmax := nn.NewOnlineSoftmax(64)
//	for _, query := range queries {
//	    softmax.Update(scores, values)
//	    result := softmax.Normalize()
//	    // use result
//	    softmax.Reset()
//	}
func (o *OnlineSoftmax) Reset() {
	o.maxVal = float32(math.Inf(-1))
	o.sumExp = 0
	for i := range o.output {
		o.output[i] = 0
	}
}
