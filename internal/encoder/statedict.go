package encoder

import (
	"fmt"
	"strings"

	"github.com/prism-ml/prism/internal/nn"
	"github.com/prism-ml/prism/internal/tensor"
)

// StateDict returns all encoder weights keyed by dotted path:
//
//	embed.weight
//	pos.weight                      (learned positions only)
//	layers.{i}.attn.{wq,wk,wv,wo}.{weight,bias}
//	layers.{i}.attn_norm.gamma      (and beta for layernorm)
//	layers.{i}.ffn.{linear1,linear2}.{weight,bias}
//	layers.{i}.ffn_norm.gamma
//	final_norm.gamma                (final norm only)
func (e *Encoder[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for prefix, mod := range e.stateGroups() {
		for name, raw := range mod.StateDict() {
			stateDict[prefix+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict restores all encoder weights from a state dictionary using
// StateDict's key layout. Shapes and dtypes are validated. Keys that do not
// belong to any submodule are ignored.
func (e *Encoder[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for prefix, mod := range e.stateGroups() {
		if err := mod.LoadStateDict(subDict(stateDict, prefix)); err != nil {
			return fmt.Errorf("loading %s: %w", strings.TrimSuffix(prefix, "."), err)
		}
	}
	return nil
}

func (e *Encoder[B]) stateGroups() map[string]nn.StateModule {
	groups := map[string]nn.StateModule{
		"embed.": e.Embed,
	}
	if e.learnedPE != nil {
		groups["pos."] = e.learnedPE
	}
	for i, layer := range e.Layers {
		groups[fmt.Sprintf("layers.%d.", i)] = layer
	}
	if e.Final != nil {
		groups["final_norm."] = e.Final
	}
	return groups
}

// subDict extracts the entries under one prefix, with the prefix removed.
func subDict(stateDict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if strings.HasPrefix(name, prefix) {
			sub[strings.TrimPrefix(name, prefix)] = raw
		}
	}
	return sub
}

// TranslateHFKeys maps HuggingFace BERT-family checkpoint keys (BERT,
// RoBERTa, ELECTRA) onto the layout StateDict uses. Linear weights already
// share the [out_features, in_features] layout, so tensors pass through
// untouched. Keys with no counterpart here are dropped: the pooler, token
// type embeddings, the post-embedding LayerNorm, and cls heads.
func TranslateHFKeys(hf map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(hf))
	for key, raw := range hf {
		if name, ok := translateHFKey(key); ok {
			out[name] = raw
		}
	}
	return out
}

// hfLayerKeys translates sublayer paths inside one encoder layer. Entries
// are ordered: "attention.output" patterns must match before the FFN
// "output" patterns. Old checkpoints name LayerNorm parameters gamma/beta,
// new ones weight/bias; both forms are listed.
var hfLayerKeys = [...][2]string{
	{".attention.self.query.", ".attn.wq."},
	{".attention.self.key.", ".attn.wk."},
	{".attention.self.value.", ".attn.wv."},
	{".attention.output.dense.", ".attn.wo."},
	{".attention.output.LayerNorm.weight", ".attn_norm.gamma"},
	{".attention.output.LayerNorm.bias", ".attn_norm.beta"},
	{".attention.output.LayerNorm.gamma", ".attn_norm.gamma"},
	{".attention.output.LayerNorm.beta", ".attn_norm.beta"},
	{".intermediate.dense.", ".ffn.linear1."},
	{".output.dense.", ".ffn.linear2."},
	{".output.LayerNorm.weight", ".ffn_norm.gamma"},
	{".output.LayerNorm.bias", ".ffn_norm.beta"},
	{".output.LayerNorm.gamma", ".ffn_norm.gamma"},
	{".output.LayerNorm.beta", ".ffn_norm.beta"},
}

func translateHFKey(key string) (string, bool) {
	for _, p := range [...]string{"bert.", "roberta.", "electra."} {
		key = strings.TrimPrefix(key, p)
	}

	switch key {
	case "embeddings.word_embeddings.weight":
		return "embed.weight", true
	case "embeddings.position_embeddings.weight":
		return "pos.weight", true
	}

	if !strings.HasPrefix(key, "encoder.layer.") {
		return "", false
	}
	key = "layers." + strings.TrimPrefix(key, "encoder.layer.")

	for _, r := range hfLayerKeys {
		if strings.Contains(key, r[0]) {
			return strings.Replace(key, r[0], r[1], 1), true
		}
	}
	return "", false
}
