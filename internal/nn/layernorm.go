package nn

import (
	"fmt"

	"github.com/prism-ml/prism/internal/tensor"
)

// LayerNorm applies Layer Normalization over the last dimension of the input.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - gamma is the learnable scale parameter [d_model]
//   - beta is the learnable shift parameter [d_model]
//   - mean and variance are computed along the last dimension
//   - eps is a small value to avoid division by zero
//
// LayerNorm normalizes activations by computing statistics across features.
// Transformer encoders apply it after (post-norm) or before (pre-norm) each
// sublayer.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewLayerNorm(768, 1e-5, backend)
//	output := norm.Forward(hiddenStates)  // [..., 768] -> [..., 768]
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32       // numerical stability constant
	backend B
}

// NewLayerNorm creates a new LayerNorm layer.
//
// Parameters:
//   - normalizedShape: size of the last dimension (feature dimension)
//   - epsilon: small constant for numerical stability (typically 1e-5 or 1e-6)
//   - backend: computation backend
//
// The gamma parameter is initialized to ones, beta to zeros.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	gamma := tensor.Ones[float32](tensor.Shape{normalizedShape}, backend)
	beta := tensor.Zeros[float32](tensor.Shape{normalizedShape}, backend)

	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", gamma),
		Beta:    NewParameter("beta", beta),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Shapes:
//   - input: [..., d_model]
//   - output: [..., d_model]
//
// Algorithm:
//  1. Compute mean = mean(x) along last dimension (keepdim=true)
//  2. Subtract mean: x_centered = x - mean
//  3. Compute variance = mean((x - mean)^2) along last dimension
//  4. Normalize: x_norm = x_centered / sqrt(variance + epsilon)
//  5. Scale and shift: output = gamma * x_norm + beta
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	xCentered := x.Sub(mean)

	// Clone so the square cannot reuse xCentered's buffer; the normalize
	// step still needs the centered values.
	variance := xCentered.Mul(xCentered.Clone()).MeanDim(-1, true)

	// 1 / sqrt(variance + eps)
	rsqrt := variance.AddScalar(l.Epsilon).Rsqrt()

	xNorm := xCentered.Mul(rsqrt)

	// gamma and beta are [d_model]; unsqueeze to [1, ..., 1, d_model] so the
	// elementwise ops broadcast over the leading dimensions.
	gamma := l.Gamma.Tensor()
	beta := l.Beta.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gamma = gamma.Unsqueeze(0)
		beta = beta.Unsqueeze(0)
	}

	return xNorm.Mul(gamma).Add(beta)
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}

// StateDict returns a map of parameter names to raw tensors.
func (l *LayerNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"gamma": l.Gamma.Tensor().Raw(),
		"beta":  l.Beta.Tensor().Raw(),
	}
}

// LoadStateDict loads gamma and beta from a state dictionary.
func (l *LayerNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	expected := tensor.Shape{l.Gamma.Tensor().Shape()[0]}

	for _, entry := range []struct {
		key   string
		param *Parameter[B]
	}{
		{"gamma", l.Gamma},
		{"beta", l.Beta},
	} {
		raw, ok := stateDict[entry.key]
		if !ok {
			return fmt.Errorf("missing %s in state dict", entry.key)
		}
		if !raw.Shape().Equal(expected) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v",
				entry.key, expected, raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%s dtype mismatch: expected float32, got %v",
				entry.key, raw.DType())
		}
		copy(entry.param.Tensor().Data(), raw.AsFloat32())
	}

	return nil
}
