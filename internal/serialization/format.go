package serialization

import (
	"encoding/json"
	"time"

	"github.com/prism-ml/prism/internal/tensor"
)

// Format constants.
const (
	MagicBytes        = "PRSM"
	FormatVersionV1   = 1    // v1: variable-length header, no checksum
	FormatVersionV2   = 2    // v2: 64-byte fixed header with SHA-256 checksum
	HeaderAlignment   = 64   // Tensor data is aligned to 64 bytes
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffsetV2  = 0x20 // Checksum offset in the v2 fixed header
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
)

// Flags for the .prism format.
const (
	FlagCompressed  uint32 = 1 << 0 // bit 0: gzip compression
	FlagHasConfig   uint32 = 1 << 1 // bit 1: model configuration included
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header represents the JSON header in a .prism file.
type Header struct {
	FormatVersion int               `json:"format_version"`   // Version of the .prism format
	PrismVersion  string            `json:"prism_version"`    // Version of Prism that created this file
	ModelType     string            `json:"model_type"`       // Type of model (e.g., "TransformerEncoder")
	CreatedAt     time.Time         `json:"created_at"`       // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`          // Tensor metadata
	Metadata      map[string]string `json:"metadata"`         // Custom metadata
	Config        json.RawMessage   `json:"config,omitempty"` // Model configuration (optional)
}

// TensorMeta describes a tensor in the .prism file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "layers.0.attn.wq.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32", "float64")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	default:
		return "unknown"
	}
}

// stringToDtype converts a string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}
