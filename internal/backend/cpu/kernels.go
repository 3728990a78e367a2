package cpu

import (
	"github.com/prism-ml/prism/internal/tensor"
)

// number constrains kernels to the dtypes the tensor package supports.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Inplace kernels. Require matching shapes.

func addInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] += b[i]
	}
}

func subInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] -= b[i]
	}
}

func mulInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] *= b[i]
	}
}

func divInplaceSlice[T number](a, b []T) {
	for i := range a {
		a[i] /= b[i]
	}
}

// Vectorized kernels: dst = a op b. Require matching shapes.

func addSlices[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] + b[i]
	}
}

func subSlices[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

func mulSlices[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] * b[i]
	}
}

func divSlices[T number](dst, a, b []T) {
	for i := range a {
		dst[i] = a[i] / b[i]
	}
}

// Broadcasting kernels. Dimensions of size 1 get stride 0 so the same
// source element feeds every output position along that dimension.

func addBroadcastSlices[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] + b[bIdx]
	}
}

func subBroadcastSlices[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] - b[bIdx]
	}
}

func mulBroadcastSlices[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] * b[bIdx]
	}
}

func divBroadcastSlices[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		dst[i] = a[aIdx] / b[bIdx]
	}
}

// transposeSlice permutes src into dst according to axes.
func transposeSlice[T number](dst, src []T, shape tensor.Shape, axes []int) {
	ndim := len(shape)
	srcStrides := shape.ComputeStrides()

	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	n := shape.NumElements()
	coords := make([]int, ndim)
	for i := 0; i < n; i++ {
		// Decompose the source index into coordinates.
		idx := i
		for dim := 0; dim < ndim; dim++ {
			coords[dim] = idx / srcStrides[dim]
			idx %= srcStrides[dim]
		}

		// Recompose under the permutation.
		dstIdx := 0
		for dstDim, srcDim := range axes {
			dstIdx += coords[srcDim] * dstStrides[dstDim]
		}

		dst[dstIdx] = src[i]
	}
}
