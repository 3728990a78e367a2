// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/tensor"
)

// Parameter represents a named weight tensor belonging to a module.
//
// Parameters carry the model's weights and biases. The toolkit runs
// inference only, so parameters hold no gradient state; they are loaded
// from checkpoints or initialized randomly and then read during Forward.
//
// Example:
//
//	// Create a weight parameter
//	weight := nn.NewParameter("weight", weightTensor)
//
//	// Access the tensor
//	w := weight.Tensor()
//
// Methods:
//
//	Name() string
//	    Returns the parameter name (e.g., "weight", "bias").
//
//	Tensor() *tensor.Tensor[float32, B]
//	    Returns the parameter tensor.
//
//	NumElements() int
//	    Returns the number of scalar values in the parameter.
//
// Note: Parameter is implemented as a type alias because it is used as a return type
// in the Module interface. Go's type system requires exact type matches for interface
// implementations, so we cannot use an interface here.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter wrapping the given tensor.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}
