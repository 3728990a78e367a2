// Package loader provides model weight loading for the Prism framework.
//
// This package wraps internal loader implementations and exports a clean public API
// for loading model weights from various formats (SafeTensors, Prism checkpoints).
//
// Example usage:
//
//	import (
//	    "github.com/prism-ml/prism/loader"
//	    "github.com/prism-ml/prism/backend/cpu"
//	)
//
//	// Open model with auto-detection
//	model, err := loader.OpenModel("path/to/model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	// Get model information
//	fmt.Printf("Format: %s\n", model.Format())
//	fmt.Printf("Naming: %s\n", model.Naming())
//
//	// Load a specific tensor
//	backend := cpu.New()
//	tensor, err := model.LoadTensor("layers.0.attn.wq.weight", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/prism-ml/prism/internal/loader"
)

// ModelFormat represents the checkpoint container format.
type ModelFormat = loader.ModelFormat

// Supported checkpoint formats.
const (
	FormatUnknown     ModelFormat = loader.FormatUnknown
	FormatSafeTensors ModelFormat = loader.FormatSafeTensors
	FormatPrism       ModelFormat = loader.FormatPrism
)

// ModelReader provides a unified interface for loading model weights.
// It abstracts away the underlying file format and provides consistent access
// to model tensors.
//
// Note: This is a type alias because the LoadTensor method signature references
// internal tensor types that cannot be abstracted without a wrapper layer.
type ModelReader = loader.ModelReader

// OpenModel opens a checkpoint file and auto-detects the format.
//
// Supported formats:
//   - .safetensors (Hugging Face standard)
//   - .prism (native checkpoint container)
//
// The function also detects the weight naming scheme (canonical or
// HuggingFace BERT-family) from the tensor names.
//
// Example:
//
//	model, err := loader.OpenModel("path/to/bert-base.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	fmt.Printf("Format: %s\n", model.Format())  // "SafeTensors"
//	fmt.Printf("Naming: %s\n", model.Naming())  // "huggingface"
//
//	// List all tensors
//	for _, name := range model.TensorNames() {
//	    fmt.Println(name)
//	}
//
//	// Load specific tensor
//	backend := cpu.New()
//	weight, err := model.LoadTensor("bert.embeddings.word_embeddings.weight", backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
func OpenModel(path string) (ModelReader, error) {
	return loader.OpenModel(path)
}

// Naming identifies the weight naming scheme used in a checkpoint.
// Different training stacks write different tensor names for the same
// architecture; this type provides a way to classify them.
type Naming = loader.Naming

// Recognized naming schemes.
const (
	NamingUnknown     Naming = loader.NamingUnknown
	NamingCanonical   Naming = loader.NamingCanonical
	NamingHuggingFace Naming = loader.NamingHuggingFace
)

// DetectNaming classifies the weight naming scheme from tensor names.
// Returns NamingCanonical for native checkpoints, NamingHuggingFace for
// BERT-family transformers checkpoints.
func DetectNaming(names []string) Naming {
	return loader.DetectNaming(names)
}
