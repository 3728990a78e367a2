package encoder

import "math"

// Trace captures the intermediate state of one encoder forward pass.
//
// All data is copied out of the backing tensors as flat row-major slices,
// so a Trace stays valid after further encoder calls and carries no
// backend dependency.
type Trace struct {
	TokenIDs []int32 // [batch*seq]
	Batch    int
	SeqLen   int
	NumHeads int
	DModel   int

	Embedded       []float32 // [batch*seq*d_model], scaled token embeddings
	PostPositional []float32 // [batch*seq*d_model], after positions and dropout
	Mask           []float32 // additive attention mask, nil when unmasked
	MaskShape      []int

	Layers []LayerTrace
	Output []float32 // [batch*seq*d_model], final hidden states
}

// LayerTrace holds one layer's attention weights and output.
type LayerTrace struct {
	Weights []float32 // [batch*heads*seq*seq], rows sum to 1
	Hidden  []float32 // [batch*seq*d_model]
}

// NumLayers returns the number of traced layers.
func (t *Trace) NumLayers() int {
	return len(t.Layers)
}

// Tokens returns the token ids of one batch row.
func (t *Trace) Tokens(batch int) []int32 {
	start := batch * t.SeqLen
	return t.TokenIDs[start : start+t.SeqLen]
}

// Weights returns the attention matrix of one head in the first batch row.
// Row i holds the attention of query position i over all key positions.
func (t *Trace) Weights(layer, head int) [][]float32 {
	return t.WeightsAt(layer, 0, head)
}

// WeightsAt returns the [seq][seq] attention matrix of one batch row and
// head. The rows alias the trace buffer; callers must not modify them.
func (t *Trace) WeightsAt(layer, batch, head int) [][]float32 {
	flat := t.Layers[layer].Weights
	rows := make([][]float32, t.SeqLen)
	for i := 0; i < t.SeqLen; i++ {
		start := ((batch*t.NumHeads+head)*t.SeqLen + i) * t.SeqLen
		rows[i] = flat[start : start+t.SeqLen]
	}
	return rows
}

// HiddenAt returns the hidden state vector of one token position after the
// given layer, for the first batch row.
func (t *Trace) HiddenAt(layer, pos int) []float32 {
	start := pos * t.DModel
	return t.Layers[layer].Hidden[start : start+t.DModel]
}

// Entropy returns the mean Shannon entropy in nats over the attention rows
// of one head in the first batch row. Low entropy means sharply focused
// attention; the maximum for sequence length n is ln(n).
func (t *Trace) Entropy(layer, head int) float64 {
	rows := t.Weights(layer, head)
	var total float64
	for _, row := range rows {
		var h float64
		for _, w := range row {
			if w > 0 {
				h -= float64(w) * math.Log(float64(w))
			}
		}
		total += h
	}
	return total / float64(len(rows))
}

// MostAttended returns the key position one query attends to most strongly,
// for one head in the first batch row.
func (t *Trace) MostAttended(layer, head, query int) int {
	row := t.Weights(layer, head)[query]
	best := 0
	for j := 1; j < len(row); j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best
}
