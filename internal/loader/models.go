package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prism-ml/prism/internal/serialization"
	"github.com/prism-ml/prism/internal/tensor"
)

// ModelFormat represents the checkpoint container format.
type ModelFormat int

// Supported checkpoint formats.
const (
	FormatUnknown ModelFormat = iota
	FormatSafeTensors
	FormatPrism
)

// String returns the format name.
func (f ModelFormat) String() string {
	switch f {
	case FormatSafeTensors:
		return "SafeTensors"
	case FormatPrism:
		return "Prism"
	default:
		return "Unknown"
	}
}

// ModelReader provides a unified interface for loading model weights
// regardless of the on-disk container.
type ModelReader interface {
	// Close closes the underlying file.
	Close() error

	// Format returns the checkpoint container format.
	Format() ModelFormat

	// ModelType returns the declared model type, or "" when the container
	// carries none.
	ModelType() string

	// Naming reports the weight naming scheme detected from tensor names.
	Naming() Naming

	// Metadata returns free-form metadata from the container header.
	Metadata() map[string]string

	// Config returns the embedded model configuration JSON, or nil when
	// the container has no config slot (SafeTensors does not).
	Config() json.RawMessage

	// TensorNames returns all tensor names in the checkpoint.
	TensorNames() []string

	// LoadTensor loads a single tensor by name.
	LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error)

	// ReadTensorData reads raw tensor bytes (for custom conversion).
	ReadTensorData(name string) ([]byte, error)

	// StateDict loads every tensor in the checkpoint.
	StateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error)
}

// safeTensorsModel wraps SafeTensorsReader to implement ModelReader.
type safeTensorsModel struct {
	reader *SafeTensorsReader
	naming Naming
}

// Format returns FormatSafeTensors.
func (m *safeTensorsModel) Format() ModelFormat {
	return FormatSafeTensors
}

// ModelType returns the model_type metadata entry, if present.
func (m *safeTensorsModel) ModelType() string {
	return m.reader.Metadata()["model_type"]
}

// Naming returns the detected weight naming scheme.
func (m *safeTensorsModel) Naming() Naming {
	return m.naming
}

// Metadata returns the __metadata__ entries.
func (m *safeTensorsModel) Metadata() map[string]string {
	return m.reader.Metadata()
}

// Config returns nil; SafeTensors has no config slot.
func (m *safeTensorsModel) Config() json.RawMessage {
	return nil
}

// TensorNames returns all tensor names.
func (m *safeTensorsModel) TensorNames() []string {
	return m.reader.TensorNames()
}

// LoadTensor loads a tensor by name.
func (m *safeTensorsModel) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	return m.reader.LoadTensor(name, backend)
}

// ReadTensorData reads raw tensor bytes.
func (m *safeTensorsModel) ReadTensorData(name string) ([]byte, error) {
	return m.reader.ReadTensorData(name)
}

// StateDict loads every tensor in the checkpoint.
func (m *safeTensorsModel) StateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, name := range m.reader.TensorNames() {
		raw, err := m.reader.LoadTensor(name, backend)
		if err != nil {
			return nil, fmt.Errorf("loading tensor %s: %w", name, err)
		}
		stateDict[name] = raw
	}
	return stateDict, nil
}

// Close closes the reader.
func (m *safeTensorsModel) Close() error {
	return m.reader.Close()
}

// prismModel wraps serialization.Reader to implement ModelReader.
type prismModel struct {
	reader *serialization.Reader
	naming Naming
}

// Format returns FormatPrism.
func (m *prismModel) Format() ModelFormat {
	return FormatPrism
}

// ModelType returns the model type from the checkpoint header.
func (m *prismModel) ModelType() string {
	return m.reader.Header().ModelType
}

// Naming returns the detected weight naming scheme.
func (m *prismModel) Naming() Naming {
	return m.naming
}

// Metadata returns header metadata.
func (m *prismModel) Metadata() map[string]string {
	return m.reader.Metadata()
}

// Config returns the embedded model configuration JSON.
func (m *prismModel) Config() json.RawMessage {
	return m.reader.Config()
}

// TensorNames returns all tensor names.
func (m *prismModel) TensorNames() []string {
	return m.reader.TensorNames()
}

// LoadTensor loads a tensor by name.
func (m *prismModel) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	return m.reader.LoadTensor(name, backend)
}

// ReadTensorData reads raw tensor bytes.
func (m *prismModel) ReadTensorData(name string) ([]byte, error) {
	return m.reader.ReadTensorData(name)
}

// StateDict loads every tensor in the checkpoint.
func (m *prismModel) StateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	return m.reader.ReadStateDict(backend)
}

// Close closes the reader.
func (m *prismModel) Close() error {
	return m.reader.Close()
}

// OpenModel opens a checkpoint file and auto-detects the format.
// Supports .safetensors and .prism files.
//
// Example:
//
//	model, err := loader.OpenModel("path/to/model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	fmt.Printf("Format: %s\n", model.Format())
//	fmt.Printf("Naming: %s\n", model.Naming())
func OpenModel(path string) (ModelReader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".safetensors":
		return openSafeTensors(path)
	case ".prism":
		return openPrism(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (expected .safetensors or .prism)", ext)
	}
}

// openSafeTensors opens a SafeTensors file.
func openSafeTensors(path string) (ModelReader, error) {
	reader, err := NewSafeTensorsReader(path)
	if err != nil {
		return nil, err
	}

	return &safeTensorsModel{
		reader: reader,
		naming: DetectNaming(reader.TensorNames()),
	}, nil
}

// openPrism opens a .prism checkpoint.
func openPrism(path string) (ModelReader, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, err
	}

	return &prismModel{
		reader: reader,
		naming: DetectNaming(reader.TensorNames()),
	}, nil
}
