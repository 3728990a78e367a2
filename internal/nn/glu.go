package nn

import (
	"math"

	"github.com/prism-ml/prism/internal/tensor"
)

// SiLUFunc applies SiLU (Swish) activation: f(x) = x * sigmoid(x).
//
// This is the functional version of SiLU activation, useful in GLU variants.
//
// Example:
//
//	output := nn.SiLUFunc(input)
func SiLUFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	if siluBackend, ok := any(backend).(SiLUBackend); ok {
		resultRaw := siluBackend.SiLU(x.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	// The fresh sigmoid is the lhs so in-place reuse cannot touch x.
	return SigmoidFunc(x).Mul(x)
}

// GELUFunc applies GELU (Gaussian Error Linear Unit) activation.
//
// When the backend implements GELUBackend the exact formulation
// x * 0.5 * (1 + erf(x / sqrt(2))) is used. Otherwise the tanh
// approximation 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3)))
// is computed from tensor ops.
//
// GELU is used in BERT, GPT-2, and other transformers.
//
// Example:
//
//	output := nn.GELUFunc(input)
func GELUFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	if geluBackend, ok := any(backend).(GELUBackend); ok {
		resultRaw := geluBackend.GELU(x.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	return geluTanhApprox(x)
}

// geluTanhApprox computes GELU using the tanh approximation.
func geluTanhApprox[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	sqrt2pi := float32(math.Sqrt(2.0 / math.Pi)) // ~0.7978845608
	c := float32(0.044715)

	// sqrt(2/pi) * (x + 0.044715 * x^3). Clone keeps the square out of
	// x's buffer; x is reused below.
	x3 := x.Mul(x.Clone()).Mul(x)
	inner := x.Add(x3.MulScalar(c)).MulScalar(sqrt2pi)

	if tanhBackend, ok := any(backend).(TanhBackend); ok {
		tanhRaw := tanhBackend.Tanh(inner.Raw())
		tanhResult := tensor.New[float32, B](tanhRaw, backend)

		// 0.5 * x * (1 + tanh(...))
		return x.MulScalar(0.5).Mul(tanhResult.AddScalar(1.0))
	}

	panic("GELUFunc: backend must implement Tanh operation")
}

// ReLUFunc applies ReLU activation: f(x) = max(0, x).
//
// Example:
//
//	output := nn.ReLUFunc(input)
func ReLUFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	if reluBackend, ok := any(backend).(ReLUBackend); ok {
		resultRaw := reluBackend.ReLU(x.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	panic("ReLUFunc: backend must implement ReLU operation")
}

// SigmoidFunc applies Sigmoid activation: σ(x) = 1 / (1 + exp(-x)).
//
// Example:
//
//	output := nn.SigmoidFunc(input)
func SigmoidFunc[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	if sigmoidBackend, ok := any(backend).(SigmoidBackend); ok {
		resultRaw := sigmoidBackend.Sigmoid(x.Raw())
		return tensor.New[float32, B](resultRaw, backend)
	}

	// 1 / (1 + exp(-x)) from primitive ops.
	denom := x.MulScalar(-1).Exp().AddScalar(1)
	return tensor.Ones[float32](denom.Shape(), backend).Div(denom)
}

// GLU applies Gated Linear Unit: GLU(x, gate) = x * sigmoid(gate).
//
// GLU is the base gating mechanism used in gated transformer FFN layers.
//
// Parameters:
//   - x: input tensor.
//   - gate: gating tensor (same shape as x).
//
// Returns: x * sigmoid(gate).
//
// Example:
//
//	output := nn.GLU(x, gate)
func GLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// The activated gate is the lhs so in-place reuse stays in its fresh
	// buffer and the caller's tensors are left intact.
	return SigmoidFunc(gate).Mul(x)
}

// SwiGLU applies Swish-Gated Linear Unit: SwiGLU(x, gate) = x * SiLU(gate).
//
// SwiGLU is used in modern LLMs like LLaMA and Mistral. It combines the
// input with a SiLU-activated gate.
//
// Parameters:
//   - x: input tensor (typically the "up" projection).
//   - gate: gating tensor (typically the "gate" projection).
//
// Returns: x * SiLU(gate) where SiLU(z) = z * sigmoid(z).
//
// Example:
//
//	up := upProj.Forward(input)
//	gate := gateProj.Forward(input)
//	hidden := nn.SwiGLU(up, gate)
func SwiGLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return SiLUFunc(gate).Mul(x)
}

// GeGLU applies GELU-Gated Linear Unit: GeGLU(x, gate) = x * GELU(gate).
//
// Parameters:
//   - x: input tensor.
//   - gate: gating tensor.
//
// Returns: x * GELU(gate).
//
// Example:
//
//	output := nn.GeGLU(up, gate)
func GeGLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return GELUFunc(gate).Mul(x)
}

// ReGLU applies ReLU-Gated Linear Unit: ReGLU(x, gate) = x * ReLU(gate).
//
// Parameters:
//   - x: input tensor.
//   - gate: gating tensor.
//
// Returns: x * ReLU(gate).
//
// Example:
//
//	output := nn.ReGLU(up, gate)
func ReGLU[B tensor.Backend](x, gate *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return ReLUFunc(gate).Mul(x)
}
