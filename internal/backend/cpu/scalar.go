package cpu

import (
	"fmt"

	"github.com/prism-ml/prism/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.
// The scalar's Go type must match the tensor's dtype.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("mulScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		mulScalarSlice(result.AsFloat32(), x.AsFloat32(), scalar.(float32))
	case tensor.Float64:
		mulScalarSlice(result.AsFloat64(), x.AsFloat64(), scalar.(float64))
	case tensor.Int32:
		mulScalarSlice(result.AsInt32(), x.AsInt32(), scalar.(int32))
	case tensor.Int64:
		mulScalarSlice(result.AsInt64(), x.AsInt64(), scalar.(int64))
	default:
		panic(fmt.Sprintf("mulScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("addScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		addScalarSlice(result.AsFloat32(), x.AsFloat32(), scalar.(float32))
	case tensor.Float64:
		addScalarSlice(result.AsFloat64(), x.AsFloat64(), scalar.(float64))
	case tensor.Int32:
		addScalarSlice(result.AsInt32(), x.AsInt32(), scalar.(int32))
	case tensor.Int64:
		addScalarSlice(result.AsInt64(), x.AsInt64(), scalar.(int64))
	default:
		panic(fmt.Sprintf("addScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// SubScalar subtracts a scalar value from each element of the tensor.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("subScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		subScalarSlice(result.AsFloat32(), x.AsFloat32(), scalar.(float32))
	case tensor.Float64:
		subScalarSlice(result.AsFloat64(), x.AsFloat64(), scalar.(float64))
	case tensor.Int32:
		subScalarSlice(result.AsInt32(), x.AsInt32(), scalar.(int32))
	case tensor.Int64:
		subScalarSlice(result.AsInt64(), x.AsInt64(), scalar.(int64))
	default:
		panic(fmt.Sprintf("subScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// DivScalar divides each element of the tensor by a scalar value.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("divScalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		divScalarSlice(result.AsFloat32(), x.AsFloat32(), scalar.(float32))
	case tensor.Float64:
		divScalarSlice(result.AsFloat64(), x.AsFloat64(), scalar.(float64))
	case tensor.Int32:
		divScalarSlice(result.AsInt32(), x.AsInt32(), scalar.(int32))
	case tensor.Int64:
		divScalarSlice(result.AsInt64(), x.AsInt64(), scalar.(int64))
	default:
		panic(fmt.Sprintf("divScalar: unsupported dtype %v", x.DType()))
	}

	return result
}

// Typed kernels.

func mulScalarSlice[T number](dst, src []T, scalar T) {
	for i := range src {
		dst[i] = src[i] * scalar
	}
}

func addScalarSlice[T number](dst, src []T, scalar T) {
	for i := range src {
		dst[i] = src[i] + scalar
	}
}

func subScalarSlice[T number](dst, src []T, scalar T) {
	for i := range src {
		dst[i] = src[i] - scalar
	}
}

func divScalarSlice[T number](dst, src []T, scalar T) {
	for i := range src {
		dst[i] = src[i] / scalar
	}
}
