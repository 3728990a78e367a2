// Package loader reads model weights from checkpoint files.
//
// Two containers are supported:
//   - SafeTensors: the Hugging Face interchange format, so pretrained
//     BERT-family encoder weights can be pulled straight from the hub
//   - .prism: the native checkpoint format with an embedded model config
//     (see internal/serialization)
//
// OpenModel auto-detects the container from the file extension and returns
// a ModelReader with a uniform view of both. DetectNaming classifies the
// weight naming scheme so callers know whether transformers-style keys need
// translation before loading into an encoder.
//
// Example:
//
//	model, err := loader.OpenModel("path/to/model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	stateDict, err := model.StateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Design principles:
//   - Pure Go: no CGO dependencies
//   - Lazy loading: tensors load on demand through LoadTensor
//   - Type safety: explicit dtype handling, F16/BF16 surface as errors
//     instead of silent conversion
package loader
