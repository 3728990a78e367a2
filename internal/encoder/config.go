package encoder

import (
	"encoding/json"
	"fmt"

	"github.com/prism-ml/prism/internal/nn"
)

// Positional encoding kinds.
const (
	// PosSinusoidal selects the fixed sin/cos encodings of the original
	// Transformer.
	PosSinusoidal = "sinusoidal"
	// PosLearned selects trained position embeddings (BERT, GPT-2).
	PosLearned = "learned"
	// PosALiBi selects linear attention biases instead of added encodings.
	PosALiBi = "alibi"
)

// Normalization kinds.
const (
	NormLayerNorm = "layernorm"
	NormRMSNorm   = "rmsnorm"
)

// Config describes an encoder stack.
//
// The zero value is not usable on its own; New fills the documented
// defaults before validating. A minimal config needs VocabSize, DModel,
// NumHeads and NumLayers:
//
//	cfg := encoder.Config{VocabSize: 1000, DModel: 64, NumHeads: 4, NumLayers: 2}
//	enc, err := encoder.New(cfg, backend)
type Config struct {
	VocabSize int `json:"vocab_size"` // Vocabulary size of the token embedding
	DModel    int `json:"d_model"`    // Model dimension (d_model)
	NumHeads  int `json:"num_heads"`  // Attention heads per layer
	NumLayers int `json:"num_layers"` // Number of encoder layers
	FFNDim    int `json:"ffn_dim,omitempty"` // FFN hidden dimension; 0 means 4 * DModel
	MaxLen    int `json:"max_len,omitempty"` // Maximum sequence length; 0 means 512

	Dropout    float32 `json:"dropout,omitempty"`    // Dropout probability (applied only in training mode)
	Activation string  `json:"activation,omitempty"` // FFN activation: "relu" (default), "gelu", "silu"

	NormFirst bool    `json:"norm_first,omitempty"` // true = Pre-Norm, false = Post-Norm (original Transformer)
	FinalNorm bool    `json:"final_norm,omitempty"` // Apply one closing normalization after the last layer
	Norm      string  `json:"norm,omitempty"`       // "layernorm" (default) or "rmsnorm"
	NormEps   float32 `json:"norm_eps,omitempty"`   // Normalization epsilon; 0 means 1e-5

	PosEncoding string `json:"pos_encoding,omitempty"` // "sinusoidal" (default), "learned" or "alibi"

	// PadID is the padding token id used to derive the attention mask
	// automatically. Most vocabularies reserve 0 for padding, which is the
	// zero value. Set a negative id to disable automatic masking.
	PadID int32 `json:"pad_id"`

	// NoScaleEmbed disables the sqrt(DModel) scaling of token embeddings
	// (fairseq's no_scale_embedding). The classic encoder scales; BERT-style
	// configs do not.
	NoScaleEmbed bool `json:"no_scale_embed,omitempty"`
}

// withDefaults returns a copy with the documented defaults filled in.
func (c Config) withDefaults() Config {
	if c.FFNDim == 0 {
		c.FFNDim = 4 * c.DModel
	}
	if c.MaxLen == 0 {
		c.MaxLen = 512
	}
	if c.Activation == "" {
		c.Activation = "relu"
	}
	if c.Norm == "" {
		c.Norm = NormLayerNorm
	}
	if c.NormEps == 0 {
		c.NormEps = 1e-5
	}
	if c.PosEncoding == "" {
		c.PosEncoding = PosSinusoidal
	}
	return c
}

// Validate reports the first impossible setting, or nil.
//
// Validate checks the config as given; New applies the defaults first, so
// zero FFNDim or MaxLen only fail when Validate is called directly.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("encoder config: VocabSize must be positive, got %d", c.VocabSize)
	}
	if c.DModel <= 0 {
		return fmt.Errorf("encoder config: DModel must be positive, got %d", c.DModel)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("encoder config: NumHeads must be positive, got %d", c.NumHeads)
	}
	if c.DModel%c.NumHeads != 0 {
		return fmt.Errorf("encoder config: DModel (%d) must be divisible by NumHeads (%d)", c.DModel, c.NumHeads)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("encoder config: NumLayers must be positive, got %d", c.NumLayers)
	}
	if c.FFNDim <= 0 {
		return fmt.Errorf("encoder config: FFNDim must be positive, got %d", c.FFNDim)
	}
	if c.MaxLen <= 0 {
		return fmt.Errorf("encoder config: MaxLen must be positive, got %d", c.MaxLen)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("encoder config: Dropout must be in [0, 1), got %v", c.Dropout)
	}
	if _, err := nn.ParseActivation(c.Activation); err != nil {
		return fmt.Errorf("encoder config: %w", err)
	}
	switch c.Norm {
	case NormLayerNorm, NormRMSNorm:
	default:
		return fmt.Errorf("encoder config: unknown Norm %q, expected %q or %q", c.Norm, NormLayerNorm, NormRMSNorm)
	}
	if c.NormEps <= 0 {
		return fmt.Errorf("encoder config: NormEps must be positive, got %v", c.NormEps)
	}
	switch c.PosEncoding {
	case PosSinusoidal, PosLearned, PosALiBi:
	default:
		return fmt.Errorf("encoder config: unknown PosEncoding %q, expected %q, %q or %q",
			c.PosEncoding, PosSinusoidal, PosLearned, PosALiBi)
	}
	if int64(c.PadID) >= int64(c.VocabSize) {
		return fmt.Errorf("encoder config: PadID %d outside vocabulary of size %d", c.PadID, c.VocabSize)
	}
	return nil
}

// ConfigBase is the encoder half of the original Transformer base setup:
// 6 layers of 512 dims with 8 heads, ReLU FFNs, Post-Norm, sinusoidal
// positions.
func ConfigBase() Config {
	return Config{
		VocabSize:   32000,
		DModel:      512,
		NumHeads:    8,
		NumLayers:   6,
		FFNDim:      2048,
		MaxLen:      512,
		Dropout:     0.1,
		Activation:  "relu",
		Norm:        NormLayerNorm,
		NormEps:     1e-5,
		PosEncoding: PosSinusoidal,
		PadID:       0,
	}
}

// ConfigTiny is a small stack for demos and tests; it loads in
// milliseconds and still exercises every architectural path.
func ConfigTiny() Config {
	return Config{
		VocabSize:   1000,
		DModel:      64,
		NumHeads:    4,
		NumLayers:   2,
		FFNDim:      256,
		MaxLen:      128,
		Dropout:     0.1,
		Activation:  "relu",
		Norm:        NormLayerNorm,
		NormEps:     1e-5,
		PosEncoding: PosSinusoidal,
		PadID:       0,
	}
}

// ConfigBERTBase mirrors bert-base-uncased: 12 layers of 768 dims with
// 12 heads, GELU FFNs, Post-Norm, learned positions and no embedding
// scaling.
func ConfigBERTBase() Config {
	return Config{
		VocabSize:    30522,
		DModel:       768,
		NumHeads:     12,
		NumLayers:    12,
		FFNDim:       3072,
		MaxLen:       512,
		Dropout:      0.1,
		Activation:   "gelu",
		Norm:         NormLayerNorm,
		NormEps:      1e-12,
		PosEncoding:  PosLearned,
		PadID:        0,
		NoScaleEmbed: true,
	}
}

// hfConfig is the subset of a HuggingFace config.json the encoder can map.
type hfConfig struct {
	ModelType             string   `json:"model_type"`
	VocabSize             int      `json:"vocab_size"`
	HiddenSize            int      `json:"hidden_size"`
	NumAttentionHeads     int      `json:"num_attention_heads"`
	NumHiddenLayers       int      `json:"num_hidden_layers"`
	IntermediateSize      int      `json:"intermediate_size"`
	MaxPositionEmbeddings int      `json:"max_position_embeddings"`
	HiddenAct             string   `json:"hidden_act"`
	HiddenDropoutProb     *float64 `json:"hidden_dropout_prob"`
	LayerNormEps          *float64 `json:"layer_norm_eps"`
	PadTokenID            *int     `json:"pad_token_id"`
	PositionEmbeddingType string   `json:"position_embedding_type"`
}

// ConfigFromJSON reads a HuggingFace-style config.json into a Config.
//
// Recognized fields: vocab_size, hidden_size, num_attention_heads,
// num_hidden_layers, intermediate_size, max_position_embeddings,
// hidden_act, hidden_dropout_prob, layer_norm_eps, pad_token_id,
// position_embedding_type and model_type. BERT-family model types select
// learned positions, Post-Norm and unscaled embeddings.
func ConfigFromJSON(data []byte) (Config, error) {
	var hf hfConfig
	if err := json.Unmarshal(data, &hf); err != nil {
		return Config{}, fmt.Errorf("parsing model config: %w", err)
	}
	if hf.VocabSize <= 0 || hf.HiddenSize <= 0 {
		return Config{}, fmt.Errorf("model config missing vocab_size or hidden_size")
	}

	cfg := Config{
		VocabSize: hf.VocabSize,
		DModel:    hf.HiddenSize,
		NumHeads:  hf.NumAttentionHeads,
		NumLayers: hf.NumHiddenLayers,
		FFNDim:    hf.IntermediateSize,
		MaxLen:    hf.MaxPositionEmbeddings,
		PadID:     -1,
	}

	switch hf.HiddenAct {
	case "gelu", "gelu_new", "gelu_fast", "gelu_pytorch_tanh":
		cfg.Activation = "gelu"
	case "relu":
		cfg.Activation = "relu"
	case "silu", "swish":
		cfg.Activation = "silu"
	case "":
	default:
		return Config{}, fmt.Errorf("model config: unsupported hidden_act %q", hf.HiddenAct)
	}

	if hf.HiddenDropoutProb != nil {
		cfg.Dropout = float32(*hf.HiddenDropoutProb)
	}
	if hf.LayerNormEps != nil {
		cfg.NormEps = float32(*hf.LayerNormEps)
	}
	if hf.PadTokenID != nil {
		cfg.PadID = int32(*hf.PadTokenID) //nolint:gosec // G115: token ids fit in int32.
	}

	switch hf.PositionEmbeddingType {
	case "absolute":
		cfg.PosEncoding = PosLearned
	case "alibi":
		cfg.PosEncoding = PosALiBi
	}

	switch hf.ModelType {
	case "bert", "roberta", "electra", "distilbert":
		cfg.NoScaleEmbed = true
		if cfg.PosEncoding == "" {
			cfg.PosEncoding = PosLearned
		}
	}

	return cfg, nil
}
