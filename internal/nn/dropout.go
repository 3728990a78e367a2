package nn

import (
	"fmt"

	"github.com/prism-ml/prism/internal/tensor"
)

// Dropout randomly zeroes elements of the input with probability p during
// training, scaling the surviving elements by 1/(1-p) so the expected sum
// is unchanged (inverted dropout).
//
// In evaluation mode (the default) Forward is the identity, so a loaded
// encoder produces deterministic outputs.
//
// The dropout mask is drawn through the tensor package's random source, so
// a single tensor.Seed call makes masked forward passes reproducible.
//
// Example:
//
//	drop := nn.NewDropout[B](0.1)
//	drop.SetTraining(true)
//	noisy := drop.Forward(x)   // ~10% of elements zeroed, rest scaled by 1/0.9
//	drop.SetTraining(false)
//	same := drop.Forward(x)    // identity
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
}

// NewDropout creates a Dropout module with drop probability p.
// Panics if p is outside [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{p: p, training: false}
}

// SetTraining toggles training mode. Dropout is only applied while training.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// P returns the drop probability.
func (d *Dropout[B]) P() float32 {
	return d.p
}

// Forward applies inverted dropout to the input.
//
// Identity when not training or when p == 0.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	// Mask element is 1/(1-p) with probability 1-p, else 0.
	mask := tensor.Rand[float32](input.Shape(), input.Backend())
	maskData := mask.Data()
	scale := 1 / (1 - d.p)
	for i := range maskData {
		if maskData[i] < d.p {
			maskData[i] = 0
		} else {
			maskData[i] = scale
		}
	}

	// mask is the lhs so any inplace reuse lands in the mask's buffer,
	// leaving the caller's input intact.
	return mask.Mul(input)
}

// Parameters returns an empty slice (Dropout has no trainable parameters).
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
