package nn

import (
	"fmt"
	"strings"

	"github.com/prism-ml/prism/internal/tensor"
)

const (
	gluVariantSwiGLU = "swiglu"
	gluVariantGeGLU  = "geglu"
	gluVariantReGLU  = "reglu"
	gluVariantGLU    = "glu"
)

// SwiGLUFFNConfig configures a SwiGLUFFN layer.
type SwiGLUFFNConfig struct {
	EmbedDim   int    // Model dimension (d_model), e.g., 4096.
	FFNDim     int    // Intermediate/hidden dimension, e.g., 11008 for LLaMA 7B.
	GLUVariant string // Variant: "swiglu" (default), "geglu", "reglu", "glu".
	UseBias    bool   // Whether to use bias in linear layers (LLaMA doesn't).
}

// SwiGLUFFN implements a feed-forward network with gated activation.
//
// Architecture (LLaMA-style):
//
//	hidden = SwiGLU(x @ W_up, x @ W_gate)
//	output = hidden @ W_down
//
// Where SwiGLU(up, gate) = up * SiLU(gate).
//
// Compared to the standard two-projection FFN this uses three projections
// with a smaller hidden dimension (LLaMA uses ffn_dim ~ 2.7 * d_model
// instead of 4 * d_model), giving a similar parameter count.
//
// Example:
//
//	cfg := nn.SwiGLUFFNConfig{
//	    EmbedDim: 4096,
//	    FFNDim:   11008,  // LLaMA 7B
//	}
//	ffn := nn.NewSwiGLUFFN(cfg, backend)
//	output := ffn.Forward(x)  // [batch, seq, 4096] -> [batch, seq, 4096]
type SwiGLUFFN[B tensor.Backend] struct {
	gateProj *Linear[B] // d_model -> ffn_dim (gate projection)
	upProj   *Linear[B] // d_model -> ffn_dim (up projection)
	downProj *Linear[B] // ffn_dim -> d_model (down projection)

	config  SwiGLUFFNConfig
	backend B
}

// NewSwiGLUFFN creates a new SwiGLUFFN layer.
//
// If GLUVariant is empty, defaults to "swiglu".
// If FFNDim is 0, it's computed as 8/3 * EmbedDim rounded up to a multiple
// of 256 (LLaMA formula).
func NewSwiGLUFFN[B tensor.Backend](cfg SwiGLUFFNConfig, backend B) *SwiGLUFFN[B] {
	if cfg.EmbedDim <= 0 {
		panic(fmt.Sprintf("SwiGLUFFN: EmbedDim must be positive, got %d", cfg.EmbedDim))
	}

	if cfg.FFNDim <= 0 {
		cfg.FFNDim = (cfg.EmbedDim * 8 / 3)
		cfg.FFNDim = ((cfg.FFNDim + 255) / 256) * 256
	}

	if cfg.GLUVariant == "" {
		cfg.GLUVariant = gluVariantSwiGLU
	}

	switch cfg.GLUVariant {
	case gluVariantSwiGLU, gluVariantGeGLU, gluVariantReGLU, gluVariantGLU:
	default:
		panic(fmt.Sprintf("SwiGLUFFN: unknown GLUVariant %q, expected swiglu/geglu/reglu/glu", cfg.GLUVariant))
	}

	newProj := NewLinearNoBias[B]
	if cfg.UseBias {
		newProj = NewLinear[B]
	}

	return &SwiGLUFFN[B]{
		gateProj: newProj(cfg.EmbedDim, cfg.FFNDim, backend),
		upProj:   newProj(cfg.EmbedDim, cfg.FFNDim, backend),
		downProj: newProj(cfg.FFNDim, cfg.EmbedDim, backend),
		config:   cfg,
		backend:  backend,
	}
}

// Forward computes the gated FFN output.
//
// Input: [batch, seq_len, embed_dim] or [batch*seq_len, embed_dim].
// Output: same shape as input.
//
// Computation:
//
//	gate = x @ W_gate
//	up = x @ W_up
//	hidden = GLU_variant(up, gate)  // e.g., up * SiLU(gate)
//	output = hidden @ W_down
func (f *SwiGLUFFN[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	gate := f.gateProj.Forward(x)
	up := f.upProj.Forward(x)

	var hidden *tensor.Tensor[float32, B]
	switch f.config.GLUVariant {
	case gluVariantGeGLU:
		hidden = GeGLU(up, gate)
	case gluVariantReGLU:
		hidden = ReGLU(up, gate)
	case gluVariantGLU:
		hidden = GLU(up, gate)
	default:
		hidden = SwiGLU(up, gate)
	}

	return f.downProj.Forward(hidden)
}

// Parameters returns all trainable parameters.
func (f *SwiGLUFFN[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 6)
	params = append(params, f.gateProj.Parameters()...)
	params = append(params, f.upProj.Parameters()...)
	params = append(params, f.downProj.Parameters()...)
	return params
}

// GateProj returns the gate projection layer.
func (f *SwiGLUFFN[B]) GateProj() *Linear[B] {
	return f.gateProj
}

// UpProj returns the up projection layer.
func (f *SwiGLUFFN[B]) UpProj() *Linear[B] {
	return f.upProj
}

// DownProj returns the down projection layer.
func (f *SwiGLUFFN[B]) DownProj() *Linear[B] {
	return f.downProj
}

// StateDict returns the projection parameters with "gate_proj.", "up_proj."
// and "down_proj." prefixes.
func (f *SwiGLUFFN[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for prefix, layer := range map[string]*Linear[B]{
		"gate_proj.": f.gateProj,
		"up_proj.":   f.upProj,
		"down_proj.": f.downProj,
	} {
		for name, raw := range layer.StateDict() {
			stateDict[prefix+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads the three projections from a prefixed state dictionary.
func (f *SwiGLUFFN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for prefix, layer := range map[string]*Linear[B]{
		"gate_proj.": f.gateProj,
		"up_proj.":   f.upProj,
		"down_proj.": f.downProj,
	} {
		sub := make(map[string]*tensor.RawTensor)
		for name, raw := range stateDict {
			if strings.HasPrefix(name, prefix) {
				sub[strings.TrimPrefix(name, prefix)] = raw
			}
		}
		if err := layer.LoadStateDict(sub); err != nil {
			return fmt.Errorf("loading %s: %w", strings.TrimSuffix(prefix, "."), err)
		}
	}
	return nil
}
