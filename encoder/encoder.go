// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package encoder provides the public API for the Transformer encoder stack.
//
// The pipeline follows "Attention Is All You Need": token embeddings scaled
// by sqrt(d_model), positional information (sinusoidal, learned, or ALiBi),
// dropout, then a stack of identical layers of multi-head self-attention and
// a position-wise feed-forward network, each with residual connections and
// normalization.
//
// Example:
//
//	backend := cpu.New()
//	enc, err := encoder.New(encoder.ConfigTiny(), backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, _ := tensor.FromSlice([]int32{5, 32, 901}, tensor.Shape{1, 3}, backend)
//	hidden := enc.Forward(ids)  // [1, 3, 64]
//
// ForwardWithTrace additionally records every intermediate activation and
// all attention weights, which the viz package renders:
//
//	hidden, trace := enc.ForwardWithTrace(ids)
//	weights := trace.Weights(0, 1)  // layer 0, head 1
package encoder

import (
	"github.com/prism-ml/prism/internal/encoder"
	"github.com/prism-ml/prism/tensor"
)

// Positional encoding kinds accepted by Config.PosEncoding.
const (
	PosSinusoidal = encoder.PosSinusoidal // fixed sin/cos (original Transformer)
	PosLearned    = encoder.PosLearned    // trained position embeddings (BERT, GPT-2)
	PosALiBi      = encoder.PosALiBi      // linear attention biases (BLOOM, MPT)
)

// Normalization kinds accepted by Config.Norm.
const (
	NormLayerNorm = encoder.NormLayerNorm
	NormRMSNorm   = encoder.NormRMSNorm
)

// Config describes an encoder stack.
//
// The zero value is not usable on its own; New fills the documented
// defaults before validating. A minimal config needs VocabSize, DModel,
// NumHeads and NumLayers:
//
//	cfg := encoder.Config{VocabSize: 1000, DModel: 64, NumHeads: 4, NumLayers: 2}
//	enc, err := encoder.New(cfg, backend)
type Config = encoder.Config

// ConfigBase is the encoder half of the original Transformer base setup:
// 6 layers of 512 dims with 8 heads, ReLU FFNs, Post-Norm, sinusoidal
// positions.
func ConfigBase() Config {
	return encoder.ConfigBase()
}

// ConfigTiny is a small stack for demos and tests; it loads in
// milliseconds and still exercises every architectural path.
func ConfigTiny() Config {
	return encoder.ConfigTiny()
}

// ConfigBERTBase mirrors bert-base-uncased: 12 layers of 768 dims with
// 12 heads, GELU FFNs, Post-Norm, learned positions and no embedding
// scaling.
func ConfigBERTBase() Config {
	return encoder.ConfigBERTBase()
}

// ConfigFromJSON reads a HuggingFace-style config.json into a Config.
//
// Example:
//
//	data, _ := os.ReadFile("model/config.json")
//	cfg, err := encoder.ConfigFromJSON(data)
func ConfigFromJSON(data []byte) (Config, error) {
	return encoder.ConfigFromJSON(data)
}

// Encoder is a stack of Transformer encoder layers with an embedding front.
//
// Methods:
//
//	Forward(ids) -> hidden states [batch, seq, d_model]
//	ForwardWithMask(ids, mask) -> hidden states with a caller-supplied mask
//	ForwardWithTrace(ids) -> hidden states plus a full activation Trace
//	SetTraining(bool) -> toggles dropout
//	Parameters, NumParameters -> parameter access
//	StateDict, LoadStateDict -> persistence
type Encoder[B tensor.Backend] = encoder.Encoder[B]

// New creates an encoder from the config. Zero-valued optional fields are
// filled with defaults before validation.
//
// Example:
//
//	backend := cpu.New()
//	enc, err := encoder.New(encoder.ConfigBase(), backend)
func New[B tensor.Backend](cfg Config, backend B) (*Encoder[B], error) {
	return encoder.New(cfg, backend)
}

// Normalizer is the normalization contract an encoder layer needs.
// LayerNorm and RMSNorm both satisfy it.
type Normalizer[B tensor.Backend] = encoder.Normalizer[B]

// Layer is one encoder layer: a self-attention sublayer and an FFN
// sublayer, each wrapped in residual + normalization.
type Layer[B tensor.Backend] = encoder.Layer[B]

// NewLayer creates one encoder layer from a validated config.
//
// Most users should build whole stacks with New; NewLayer exists for
// walkthroughs that inspect a single layer.
func NewLayer[B tensor.Backend](cfg Config, backend B) *Layer[B] {
	return encoder.NewLayer(cfg, backend)
}

// Trace records everything a forward pass computed: embeddings, positional
// sums, the attention mask, per-layer attention weights and hidden states,
// and the final output. The viz package renders traces as heatmaps.
type Trace = encoder.Trace

// LayerTrace holds the recorded tensors of one encoder layer.
type LayerTrace = encoder.LayerTrace

// TranslateHFKeys renames HuggingFace BERT-style state dict keys to the
// names this package's StateDict uses. Unrecognized keys pass through
// unchanged.
func TranslateHFKeys(hf map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	return encoder.TranslateHFKeys(hf)
}
