package viz

import "fmt"

// Normalize selects how raw attention weights map onto the colormap range.
type Normalize int

const (
	// NormalizeNone uses weights as they are. Softmax rows already lie in
	// [0, 1], so this shows absolute attention strength; long sequences
	// render darker overall because rows spread over more keys.
	NormalizeNone Normalize = iota

	// NormalizeRow rescales each query row by its own maximum. Every row
	// then has one full-intensity cell, which shows where each query looks
	// regardless of how peaked its distribution is.
	NormalizeRow

	// NormalizeGlobal rescales by the matrix maximum, preserving relative
	// strength between rows.
	NormalizeGlobal
)

// String returns the mode name.
func (n Normalize) String() string {
	switch n {
	case NormalizeRow:
		return "row"
	case NormalizeGlobal:
		return "global"
	default:
		return "none"
	}
}

// ParseNormalize resolves a normalization mode by name. The empty string
// selects NormalizeNone.
func ParseNormalize(name string) (Normalize, error) {
	switch name {
	case "", "none":
		return NormalizeNone, nil
	case "row":
		return NormalizeRow, nil
	case "global":
		return NormalizeGlobal, nil
	default:
		return 0, fmt.Errorf("unknown normalization %q, expected %q, %q or %q", name, "none", "row", "global")
	}
}

// apply returns the normalized matrix. The input is never modified; for
// NormalizeNone it is returned as-is. All-zero rows and matrices stay zero.
func (n Normalize) apply(weights [][]float32) [][]float32 {
	switch n {
	case NormalizeRow:
		out := make([][]float32, len(weights))
		for i, row := range weights {
			out[i] = scaleRow(row, rowMax(row))
		}
		return out
	case NormalizeGlobal:
		var max float32
		for _, row := range weights {
			if m := rowMax(row); m > max {
				max = m
			}
		}
		out := make([][]float32, len(weights))
		for i, row := range weights {
			out[i] = scaleRow(row, max)
		}
		return out
	default:
		return weights
	}
}

func rowMax(row []float32) float32 {
	var max float32
	for _, w := range row {
		if w > max {
			max = w
		}
	}
	return max
}

func scaleRow(row []float32, max float32) []float32 {
	out := make([]float32, len(row))
	if max <= 0 {
		return out
	}
	for j, w := range row {
		out[j] = w / max
	}
	return out
}
