// Package encoder implements a Transformer encoder over token id sequences.
//
// The pipeline follows "Attention Is All You Need": token embeddings scaled
// by sqrt(d_model), positional information (sinusoidal, learned, or ALiBi),
// dropout, then a stack of identical layers of multi-head self-attention and
// a position-wise feed-forward network, each with residual connections and
// normalization. Padding positions are masked out of attention automatically
// when the config declares a pad id.
//
// Example:
//
//	backend := cpu.New()
//	enc, err := encoder.New[*cpu.CPUBackend](encoder.ConfigTiny(), backend)
//	if err != nil { ... }
//	out := enc.Forward(ids) // [batch, seq, d_model]
package encoder

import (
	"fmt"
	"math"

	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/internal/tensor"
)

// Encoder is a stack of Transformer encoder layers with an embedding front.
type Encoder[B tensor.Backend] struct {
	Config Config

	Embed  *nn.Embedding[B]
	Drop   *nn.Dropout[B]
	Layers []*Layer[B]
	Final  Normalizer[B] // nil unless Config.FinalNorm

	// Exactly one of these is non-nil, per Config.PosEncoding.
	sinPE     *nn.SinusoidalPositionalEncoding[B]
	learnedPE *nn.LearnedPositionalEmbedding[B]
	alibi     *nn.ALiBi[B]

	scale   float32 // sqrt(d_model), or 0 when scaling is disabled
	backend B
}

// New creates an encoder from the config. Zero-valued optional fields are
// filled with defaults before validation.
func New[B tensor.Backend](cfg Config, backend B) (*Encoder[B], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	enc := &Encoder[B]{
		Config:  cfg,
		Embed:   nn.NewEmbedding[B](cfg.VocabSize, cfg.DModel, backend),
		Drop:    nn.NewDropout[B](cfg.Dropout),
		Layers:  make([]*Layer[B], cfg.NumLayers),
		backend: backend,
	}
	for i := range enc.Layers {
		enc.Layers[i] = NewLayer[B](cfg, backend)
	}

	switch cfg.PosEncoding {
	case PosLearned:
		enc.learnedPE = nn.NewLearnedPositionalEmbedding[B](cfg.MaxLen, cfg.DModel, backend)
	case PosALiBi:
		enc.alibi = nn.NewALiBi[B](cfg.NumHeads, backend)
	default:
		enc.sinPE = nn.NewSinusoidalPositionalEncoding[B](cfg.MaxLen, cfg.DModel, backend)
	}

	if cfg.FinalNorm {
		enc.Final = newNormalizer[B](cfg, backend)
	}
	if !cfg.NoScaleEmbed {
		enc.scale = float32(math.Sqrt(float64(cfg.DModel)))
	}

	return enc, nil
}

// Forward encodes a batch of token id sequences.
//
// Args:
//   - ids: token ids [batch, seq]
//
// Returns hidden states [batch, seq, d_model]. Positions equal to
// Config.PadID are masked out of attention.
func (e *Encoder[B]) Forward(ids *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	e.checkIDs(ids)
	return e.forward(ids, e.buildMask(ids), nil)
}

// ForwardWithMask encodes with a caller-supplied additive attention mask
// instead of the automatic padding mask. The mask must broadcast to
// [batch, heads, seq, seq]; nil disables masking. The ALiBi bias, when
// configured, is still applied on top.
func (e *Encoder[B]) ForwardWithMask(
	ids *tensor.Tensor[int32, B], mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	e.checkIDs(ids)
	if e.alibi != nil {
		bias := e.alibi.GetBias(ids.Shape()[1])
		if mask == nil {
			mask = bias
		} else {
			mask = bias.Add(mask)
		}
	}
	return e.forward(ids, mask, nil)
}

// ForwardWithTrace encodes and records the intermediate activations and
// per-layer attention weights for inspection.
func (e *Encoder[B]) ForwardWithTrace(ids *tensor.Tensor[int32, B]) (*tensor.Tensor[float32, B], *Trace) {
	e.checkIDs(ids)

	shape := ids.Shape()
	trace := &Trace{
		TokenIDs: append([]int32(nil), ids.Data()...),
		Batch:    shape[0],
		SeqLen:   shape[1],
		NumHeads: e.Config.NumHeads,
		DModel:   e.Config.DModel,
		Layers:   make([]LayerTrace, len(e.Layers)),
	}

	out := e.forward(ids, e.buildMask(ids), trace)
	return out, trace
}

func (e *Encoder[B]) checkIDs(ids *tensor.Tensor[int32, B]) {
	shape := ids.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("encoder: ids must be 2D [batch, seq], got shape %v", shape))
	}
	if shape[1] == 0 {
		panic("encoder: empty sequence")
	}
	if shape[1] > e.Config.MaxLen {
		panic(fmt.Sprintf("encoder: sequence length %d exceeds max length %d", shape[1], e.Config.MaxLen))
	}
}

// buildMask combines the padding mask and the ALiBi bias into one additive
// attention mask. Returns nil when neither applies.
func (e *Encoder[B]) buildMask(ids *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	var mask *tensor.Tensor[float32, B]
	if e.Config.PadID >= 0 {
		mask = nn.PaddingMask(ids, e.Config.PadID)
	}
	if e.alibi != nil {
		bias := e.alibi.GetBias(ids.Shape()[1])
		if mask == nil {
			mask = bias
		} else {
			// [1, heads, seq, seq] + [batch, 1, 1, seq] broadcasts to
			// [batch, heads, seq, seq].
			mask = bias.Add(mask)
		}
	}
	return mask
}

func (e *Encoder[B]) forward(
	ids *tensor.Tensor[int32, B], mask *tensor.Tensor[float32, B], trace *Trace,
) *tensor.Tensor[float32, B] {
	seqLen := ids.Shape()[1]

	x := e.Embed.Forward(ids)
	if e.scale != 0 {
		x = x.MulScalar(e.scale)
	}
	if trace != nil {
		trace.Embedded = snapshot(x)
	}

	switch {
	case e.sinPE != nil:
		x = x.Add(e.sinPE.Forward(seqLen))
	case e.learnedPE != nil:
		x = x.Add(e.learnedPE.Forward(seqLen))
	}
	x = e.Drop.Forward(x)

	if trace != nil {
		trace.PostPositional = snapshot(x)
		if mask != nil {
			trace.Mask = snapshot(mask)
			trace.MaskShape = append([]int(nil), mask.Shape()...)
		}
	}

	for i, layer := range e.Layers {
		if trace != nil {
			var weights *tensor.Tensor[float32, B]
			x, weights = layer.ForwardWithWeights(x, mask)
			trace.Layers[i] = LayerTrace{
				Weights: snapshot(weights),
				Hidden:  snapshot(x),
			}
		} else {
			x = layer.Forward(x, mask)
		}
	}

	if e.Final != nil {
		x = e.Final.Forward(x)
	}
	if trace != nil {
		trace.Output = snapshot(x)
	}

	return x
}

// snapshot copies tensor data out into a plain slice. Later in-place ops on
// the tensor cannot touch the copy.
func snapshot[B tensor.Backend](t *tensor.Tensor[float32, B]) []float32 {
	return append([]float32(nil), t.Data()...)
}

// SetTraining toggles dropout across the whole encoder.
func (e *Encoder[B]) SetTraining(training bool) {
	e.Drop.SetTraining(training)
	for _, layer := range e.Layers {
		layer.SetTraining(training)
	}
}

// Parameters returns all trainable parameters of the encoder.
func (e *Encoder[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	params = append(params, e.Embed.Parameters()...)
	if e.learnedPE != nil {
		params = append(params, e.learnedPE.Parameters()...)
	}
	for _, layer := range e.Layers {
		params = append(params, layer.Parameters()...)
	}
	if e.Final != nil {
		params = append(params, e.Final.Parameters()...)
	}
	return params
}

// NumParameters returns the total number of trainable scalar values.
func (e *Encoder[B]) NumParameters() int {
	total := 0
	for _, p := range e.Parameters() {
		total += p.NumElements()
	}
	return total
}

// Backend returns the backend the encoder runs on.
func (e *Encoder[B]) Backend() B {
	return e.backend
}
