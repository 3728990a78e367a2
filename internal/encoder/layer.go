package encoder

import (
	"fmt"
	"strings"

	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/internal/tensor"
)

// Normalizer is the normalization contract an encoder layer needs.
// LayerNorm and RMSNorm both satisfy it.
type Normalizer[B tensor.Backend] interface {
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// newNormalizer builds the normalization layer the config selects.
func newNormalizer[B tensor.Backend](cfg Config, backend B) Normalizer[B] {
	if cfg.Norm == NormRMSNorm {
		return nn.NewRMSNorm[B](cfg.DModel, cfg.NormEps, backend)
	}
	return nn.NewLayerNorm[B](cfg.DModel, cfg.NormEps, backend)
}

// Layer is one encoder layer: a self-attention sublayer and an FFN
// sublayer, each wrapped in residual + normalization.
//
// Architecture (Post-Norm, original Transformer):
//
//	x → MHA → + → Norm → FFN → + → Norm → output
//	     ↑___|            ↑___|
//	   (residual)       (residual)
//
// Architecture (Pre-Norm):
//
//	x → Norm → MHA → + → Norm → FFN → + → output
//	      ↑_______|         ↑_______|
//	    (residual)        (residual)
//
// Dropout sits on each sublayer output before the residual sum; it is the
// identity unless the layer is switched to training mode.
type Layer[B tensor.Backend] struct {
	AttnNorm Normalizer[B]
	Attn     *nn.MultiHeadAttention[B]
	FFNNorm  Normalizer[B]
	FFN      *nn.FFN[B]
	Drop     *nn.Dropout[B]

	normFirst bool
}

// NewLayer creates one encoder layer from a validated config.
func NewLayer[B tensor.Backend](cfg Config, backend B) *Layer[B] {
	act, err := nn.ParseActivation(cfg.Activation)
	if err != nil {
		panic(fmt.Sprintf("encoder layer: %v", err))
	}

	return &Layer[B]{
		AttnNorm:  newNormalizer[B](cfg, backend),
		Attn:      nn.NewMultiHeadAttention[B](cfg.DModel, cfg.NumHeads, backend),
		FFNNorm:   newNormalizer[B](cfg, backend),
		FFN:       nn.NewFFN[B](cfg.DModel, cfg.FFNDim, act, backend),
		Drop:      nn.NewDropout[B](cfg.Dropout),
		normFirst: cfg.NormFirst,
	}
}

// Forward computes the layer output.
//
// Args:
//   - x: input hidden states [batch, seq, d_model]
//   - mask: optional additive attention mask broadcastable to
//     [batch, heads, seq, seq], or nil
//
// The input buffer may be reused for the residual sums; callers that need
// x afterwards should copy it first.
func (l *Layer[B]) Forward(x, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := l.ForwardWithWeights(x, mask)
	return out
}

// ForwardWithWeights computes the layer output and also returns the
// self-attention weights [batch, heads, seq, seq].
func (l *Layer[B]) ForwardWithWeights(
	x, mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	if l.normFirst {
		return l.forwardPreNorm(x, mask)
	}
	return l.forwardPostNorm(x, mask)
}

func (l *Layer[B]) forwardPreNorm(
	x, mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	normed := l.AttnNorm.Forward(x)
	attnOut, weights := l.Attn.ForwardWithWeights(normed, normed, normed, mask)
	x = x.Add(l.Drop.Forward(attnOut))

	normed = l.FFNNorm.Forward(x)
	ffnOut := l.FFN.Forward(normed)
	x = x.Add(l.Drop.Forward(ffnOut))

	return x, weights
}

func (l *Layer[B]) forwardPostNorm(
	x, mask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	attnOut, weights := l.Attn.ForwardWithWeights(x, x, x, mask)
	x = x.Add(l.Drop.Forward(attnOut))
	x = l.AttnNorm.Forward(x)

	ffnOut := l.FFN.Forward(x)
	x = x.Add(l.Drop.Forward(ffnOut))
	x = l.FFNNorm.Forward(x)

	return x, weights
}

// SetTraining toggles dropout for this layer.
func (l *Layer[B]) SetTraining(training bool) {
	l.Drop.SetTraining(training)
}

// Parameters returns all trainable parameters of the layer.
func (l *Layer[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 12)
	params = append(params, l.AttnNorm.Parameters()...)
	params = append(params, l.Attn.Parameters()...)
	params = append(params, l.FFNNorm.Parameters()...)
	params = append(params, l.FFN.Parameters()...)
	return params
}

// StateDict returns the layer parameters with "attn.", "attn_norm.",
// "ffn." and "ffn_norm." prefixes.
func (l *Layer[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for prefix, mod := range l.submodules() {
		for name, raw := range mod.StateDict() {
			stateDict[prefix+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads all sublayers from a prefixed state dictionary.
func (l *Layer[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for prefix, mod := range l.submodules() {
		if err := mod.LoadStateDict(subDict(stateDict, prefix)); err != nil {
			return fmt.Errorf("loading %s: %w", strings.TrimSuffix(prefix, "."), err)
		}
	}
	return nil
}

func (l *Layer[B]) submodules() map[string]nn.StateModule {
	return map[string]nn.StateModule{
		"attn.":      l.Attn,
		"attn_norm.": l.AttnNorm,
		"ffn.":       l.FFN,
		"ffn_norm.":  l.FFNNorm,
	}
}
