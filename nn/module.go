// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/internal/serialization"
	"github.com/prism-ml/prism/tensor"
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
type Module[B tensor.Backend] = nn.Module[B]

// StateModule is implemented by modules whose parameters can be exported
// to and restored from a flat name -> tensor map. All parameterized
// modules in this package implement it; stateless ones (activations,
// Dropout) do not.
type StateModule = nn.StateModule

// Save writes a module's parameters to a .prism file.
//
// This is a convenience function that exports the module's state dictionary
// and writes it in the Prism native format.
//
// Parameters:
//   - module: The module to save
//   - path: File path to write to
//   - modelType: Type name of the model (e.g., "TransformerEncoder", "Linear")
//   - metadata: Optional metadata (can be nil)
//
// Returns an error if saving fails.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 10, backend)
//	err := nn.Save(layer, "layer.prism", "Linear", nil)
func Save(module StateModule, path, modelType string, metadata map[string]string) error {
	stateDict := module.StateDict()

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = writer.Close()
	}()

	return writer.WriteStateDict(stateDict, modelType, metadata)
}

// Load reads parameters from a .prism file into a module.
//
// The module must be pre-constructed with the same architecture as when
// the file was saved; Load fills its parameters in place.
//
// Parameters:
//   - path: File path to read from
//   - backend: Backend to materialize tensors on
//   - module: The module to load into (will be modified)
//
// Returns the file header and an error if loading fails.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 10, backend)
//	header, err := nn.Load("layer.prism", backend, layer)
func Load[B tensor.Backend](path string, backend B, module StateModule) (serialization.Header, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return serialization.Header{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, err
	}

	if err := module.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, err
	}

	return reader.Header(), nil
}
