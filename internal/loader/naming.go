package loader

import "strings"

// Naming identifies the weight naming scheme used in a checkpoint.
type Naming int

// Recognized naming schemes.
const (
	NamingUnknown Naming = iota

	// NamingCanonical is the native layout:
	//
	//	embed.weight
	//	pos.weight
	//	layers.{i}.attn.wq.weight
	//	final_norm.gamma
	NamingCanonical

	// NamingHuggingFace is the BERT-family transformers layout:
	//
	//	bert.embeddings.word_embeddings.weight
	//	bert.encoder.layer.{i}.attention.self.query.weight
	//
	// Checkpoints in this scheme need key translation before they can be
	// loaded into an encoder.
	NamingHuggingFace
)

// String returns the scheme name.
func (n Naming) String() string {
	switch n {
	case NamingCanonical:
		return "canonical"
	case NamingHuggingFace:
		return "huggingface"
	default:
		return "unknown"
	}
}

// DetectNaming classifies the weight naming scheme from tensor names.
// HuggingFace markers are checked first: a canonical prefix like "layers."
// never appears in a transformers checkpoint, but partial matches the other
// way around are possible.
func DetectNaming(names []string) Naming {
	for _, name := range names {
		if strings.Contains(name, "encoder.layer.") ||
			strings.Contains(name, "embeddings.word_embeddings") ||
			strings.Contains(name, "embeddings.position_embeddings") {
			return NamingHuggingFace
		}
	}

	for _, name := range names {
		if name == "embed.weight" || name == "pos.weight" ||
			strings.HasPrefix(name, "layers.") ||
			strings.HasPrefix(name, "final_norm.") {
			return NamingCanonical
		}
	}

	return NamingUnknown
}
