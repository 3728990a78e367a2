package cpu

import (
	"fmt"

	"github.com/prism-ml/prism/internal/tensor"
)

// Unsqueeze adds a dimension of size 1 at the specified position.
//
// Example:
//
//	x := [2, 3]        -> Unsqueeze(x, 0) -> [1, 2, 3]
//	x := [2, 3]        -> Unsqueeze(x, 1) -> [2, 1, 3]
//	x := [2, 3]        -> Unsqueeze(x, 2) -> [2, 3, 1]
//
// Negative dims count from the end: Unsqueeze(x, -1) appends.
// This is a zero-copy view.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// Normalize negative dim (can insert at position ndim)
	if dim < 0 {
		dim = ndim + dim + 1
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: invalid dim %d for %dD tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return x.WithShape(newShape)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if the dimension does not have size 1.
// This is a zero-copy view.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// Normalize negative dim
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("squeeze: invalid dim %d for %dD tensor", dim, ndim))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return x.WithShape(newShape)
}
