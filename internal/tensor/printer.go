package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Preview renders the tensor's values as nested rows, eliding long
// dimensions to edgeItems leading and trailing entries. It is meant for
// terminal walkthroughs, not serialization.
//
// Example output for a [2, 4] tensor with edgeItems=3:
//
//	[[ 0.1235, -1.0042,  0.5571, ...],
//	 [ 0.9981,  0.0004, -0.2210, ...]]
func (t *Tensor[T, B]) Preview(edgeItems int) string {
	if edgeItems <= 0 {
		edgeItems = 3
	}
	var sb strings.Builder
	t.previewDim(&sb, 0, 0, edgeItems)
	return sb.String()
}

func (t *Tensor[T, B]) previewDim(sb *strings.Builder, dim, offset, edgeItems int) {
	shape := t.Shape()
	if len(shape) == 0 {
		sb.WriteString(formatElem(t.Data()[0]))
		return
	}

	strides := t.raw.Strides()
	size := shape[dim]
	last := dim == len(shape)-1

	sb.WriteByte('[')
	for i := 0; i < size; i++ {
		if size > 2*edgeItems && i == edgeItems {
			sb.WriteString("...")
			i = size - edgeItems - 1
			if !last {
				sb.WriteString(",\n")
				sb.WriteString(strings.Repeat(" ", dim+1))
			} else {
				sb.WriteString(", ")
			}
			continue
		}

		if last {
			sb.WriteString(formatElem(t.Data()[offset+i*strides[dim]]))
		} else {
			t.previewDim(sb, dim+1, offset+i*strides[dim], edgeItems)
		}

		if i < size-1 {
			if last {
				sb.WriteString(", ")
			} else {
				sb.WriteString(",\n")
				sb.WriteString(strings.Repeat(" ", dim+1))
			}
		}
	}
	sb.WriteByte(']')
}

// formatElem renders a single element: fixed-width decimal for floats,
// plain for integers.
func formatElem[T DType](v T) string {
	switch x := any(v).(type) {
	case float32:
		return fmt.Sprintf("% .4f", x)
	case float64:
		return fmt.Sprintf("% .4f", x)
	case int32:
		return fmt.Sprintf("%d", x)
	case int64:
		return fmt.Sprintf("%d", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Summary returns a one-line description with basic statistics, e.g.
//
//	Tensor[float32][2, 6, 512] on CPU  mean=-0.0012 std=0.9987 min=-4.1204 max=3.8867
//
// Statistics are only computed for float tensors; integer tensors report
// min and max.
func (t *Tensor[T, B]) Summary() string {
	data := t.Data()
	if len(data) == 0 {
		return t.String()
	}

	switch t.DType() {
	case Float32, Float64:
		var sum, sumSq float64
		minV := math.Inf(1)
		maxV := math.Inf(-1)
		for _, v := range data {
			f := float64(v)
			sum += f
			sumSq += f * f
			if f < minV {
				minV = f
			}
			if f > maxV {
				maxV = f
			}
		}
		n := float64(len(data))
		mean := sum / n
		variance := sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		return fmt.Sprintf("%s  mean=%.4f std=%.4f min=%.4f max=%.4f",
			t.String(), mean, math.Sqrt(variance), minV, maxV)
	default:
		minV := data[0]
		maxV := data[0]
		for _, v := range data[1:] {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		return fmt.Sprintf("%s  min=%v max=%v", t.String(), minV, maxV)
	}
}
