package nn

import (
	"fmt"

	"github.com/prism-ml/prism/internal/tensor"
)

// RMSNorm applies Root Mean Square Normalization over the last dimension.
//
// Formula: Y = X / sqrt(mean(X^2) + eps) * gamma
//
// Where:
//   - gamma is the learnable scale parameter [d_model]
//   - the mean is computed along the last dimension
//   - eps is a small value to avoid division by zero
//
// RMSNorm is simpler than LayerNorm (no mean subtraction, no shift) and is
// used by LLaMA-style architectures. Encoder configs can select it in place
// of LayerNorm.
//
// Example:
//
//	backend := cpu.New()
//	norm := nn.NewRMSNorm(768, 1e-5, backend)
//	output := norm.Forward(hiddenStates)  // [..., 768] -> [..., 768]
type RMSNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Epsilon float32       // numerical stability constant
	backend B
}

// NewRMSNorm creates a new RMSNorm layer.
//
// Parameters:
//   - dModel: size of the last dimension (feature dimension)
//   - epsilon: small constant for numerical stability (typically 1e-5 or 1e-6)
//   - backend: computation backend
//
// The gamma parameter is initialized to ones.
func NewRMSNorm[B tensor.Backend](dModel int, epsilon float32, backend B) *RMSNorm[B] {
	gamma := tensor.Ones[float32](tensor.Shape{dModel}, backend)

	return &RMSNorm[B]{
		Gamma:   NewParameter("gamma", gamma),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies RMSNorm to the input tensor.
//
// Shapes:
//   - input: [..., d_model]
//   - output: [..., d_model]
//
// Algorithm:
//  1. Compute variance = mean(x^2) along last dimension (keepdim=true)
//  2. Normalize: x_norm = x / sqrt(variance + epsilon)
//  3. Scale: output = x_norm * gamma
func (r *RMSNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Clone so the square cannot run in place over the caller's buffer.
	variance := x.Mul(x.Clone()).MeanDim(-1, true)

	// 1 / sqrt(variance + eps)
	rsqrt := variance.AddScalar(r.Epsilon).Rsqrt()

	normalized := x.Mul(rsqrt)

	// gamma is [d_model]; unsqueeze to broadcast over leading dimensions.
	gamma := r.Gamma.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gamma = gamma.Unsqueeze(0)
	}

	return normalized.Mul(gamma)
}

// Parameters returns the learnable parameters (gamma).
func (r *RMSNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{r.Gamma}
}

// StateDict returns a map of parameter names to raw tensors.
func (r *RMSNorm[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"gamma": r.Gamma.Tensor().Raw(),
	}
}

// LoadStateDict loads gamma from a state dictionary.
func (r *RMSNorm[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	raw, ok := stateDict["gamma"]
	if !ok {
		return fmt.Errorf("missing gamma in state dict")
	}

	expected := tensor.Shape{r.Gamma.Tensor().Shape()[0]}
	if !raw.Shape().Equal(expected) {
		return fmt.Errorf("gamma shape mismatch: expected %v, got %v", expected, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("gamma dtype mismatch: expected float32, got %v", raw.DType())
	}

	copy(r.Gamma.Tensor().Data(), raw.AsFloat32())
	return nil
}
