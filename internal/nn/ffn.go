package nn

import (
	"fmt"
	"strings"

	"github.com/prism-ml/prism/internal/tensor"
)

// ActivationKind selects the nonlinearity of a feed-forward network.
type ActivationKind int

const (
	// ActReLU is the activation of the original Transformer FFN.
	ActReLU ActivationKind = iota
	// ActGELU is the activation used by BERT-family models.
	ActGELU
	// ActSiLU is the swish activation used by LLaMA-family models.
	ActSiLU
)

// String returns the lowercase name of the activation.
func (a ActivationKind) String() string {
	switch a {
	case ActReLU:
		return "relu"
	case ActGELU:
		return "gelu"
	case ActSiLU:
		return "silu"
	default:
		return fmt.Sprintf("ActivationKind(%d)", int(a))
	}
}

// ParseActivation maps a name to an ActivationKind.
// Recognized names: "relu", "gelu", "silu" (and "swish" as an alias).
func ParseActivation(name string) (ActivationKind, error) {
	switch name {
	case "relu":
		return ActReLU, nil
	case "gelu":
		return ActGELU, nil
	case "silu", "swish":
		return ActSiLU, nil
	default:
		return 0, fmt.Errorf("unknown activation %q", name)
	}
}

// applyActivation runs the selected activation function.
func applyActivation[B tensor.Backend](a ActivationKind, x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	switch a {
	case ActReLU:
		return ReLUFunc(x)
	case ActGELU:
		return GELUFunc(x)
	case ActSiLU:
		return SiLUFunc(x)
	default:
		panic(fmt.Sprintf("unknown activation kind %d", int(a)))
	}
}

// FFN implements the position-wise Feed-Forward Network of a transformer
// layer.
//
// Architecture:
//
//	FFN(x) = Linear2(act(Linear1(x)))
//
// Where:
//   - Linear1: [embed_dim → ffn_dim] (expansion)
//   - act: the selected activation (ReLU in the original Transformer,
//     GELU in BERT)
//   - Linear2: [ffn_dim → embed_dim] (projection back)
//
// The FFN is applied independently at every sequence position, typically
// with ffn_dim = 4 * embed_dim:
//   - original Transformer: embed_dim=512, ffn_dim=2048, ReLU
//   - BERT base: embed_dim=768, ffn_dim=3072, GELU
//
// Example:
//
//	backend := cpu.New()
//	ffn := nn.NewFFN(512, 2048, nn.ActReLU, backend)
//	output := ffn.Forward(x)  // [batch, seq, 512] -> [batch, seq, 512]
type FFN[B tensor.Backend] struct {
	Linear1 *Linear[B] // [embed_dim → ffn_dim]
	Linear2 *Linear[B] // [ffn_dim → embed_dim]
	Act     ActivationKind
	backend B
}

// NewFFN creates a new Feed-Forward Network.
//
// Parameters:
//   - embedDim: input/output dimension
//   - ffnDim: hidden dimension (typically 4 * embedDim)
//   - act: activation between the two projections
//   - backend: computation backend
func NewFFN[B tensor.Backend](embedDim, ffnDim int, act ActivationKind, backend B) *FFN[B] {
	return &FFN[B]{
		Linear1: NewLinear[B](embedDim, ffnDim, backend),
		Linear2: NewLinear[B](ffnDim, embedDim, backend),
		Act:     act,
		backend: backend,
	}
}

// Forward computes the FFN output.
//
// Shapes:
//   - input: [batch, seq, embed_dim] (3D) or [batch, embed_dim] (2D)
//   - output: same shape as input
//
// Algorithm:
//  1. Expand: x -> Linear1(x) [embed_dim → ffn_dim]
//  2. Activate: x -> act(x)
//  3. Project: x -> Linear2(x) [ffn_dim → embed_dim]
func (f *FFN[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x = f.Linear1.Forward(x)
	x = applyActivation(f.Act, x)
	return f.Linear2.Forward(x)
}

// Parameters returns all trainable parameters (Linear1 and Linear2).
func (f *FFN[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, f.Linear1.Parameters()...)
	params = append(params, f.Linear2.Parameters()...)
	return params
}

// StateDict returns the parameters of both projections with
// "linear1." and "linear2." prefixes.
func (f *FFN[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range f.Linear1.StateDict() {
		stateDict["linear1."+name] = raw
	}
	for name, raw := range f.Linear2.StateDict() {
		stateDict["linear2."+name] = raw
	}
	return stateDict
}

// LoadStateDict loads both projections from a prefixed state dictionary.
func (f *FFN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for prefix, layer := range map[string]*Linear[B]{
		"linear1.": f.Linear1,
		"linear2.": f.Linear2,
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
