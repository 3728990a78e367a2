// Package nn implements the neural network modules of the Prism encoder toolkit.
//
// This package provides the building blocks the encoder stack is assembled from:
//   - Module interface: base interface for all NN components
//   - Parameter: named weight tensors
//   - Linear, Embedding, LayerNorm, RMSNorm, Dropout
//   - Attention: scaled dot-product, multi-head, flash
//   - Positional encodings: sinusoidal, learned, ALiBi
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
// All modules run in inference mode unless explicitly switched to
// training behavior (see Dropout).
package nn

import (
	"github.com/prism-ml/prism/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all named parameters
//
// Modules can be composed to build larger blocks:
//
//	ffn := nn.NewFFN[B](512, 2048, nn.ActGELU, backend)
//	out := ffn.Forward(hidden)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch, in_features] or [batch, seq, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module, including nested
	// module parameters. Returns an empty slice for modules without
	// parameters (e.g. activation functions).
	Parameters() []*Parameter[B]
}

// StateModule is implemented by modules whose parameters can be exported
// to and restored from a flat name -> tensor map.
type StateModule interface {
	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
