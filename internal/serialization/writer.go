package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/prism-ml/prism/internal/tensor"
)

const prismVersion = "0.1.0" // Current Prism version

// Writer writes models in .prism format.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a new .prism file writer.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{
		file:   file,
		closed: false,
	}, nil
}

// WriteStateDict writes a state dictionary using the current format (v2, with checksum).
//
// The state dictionary is a map from parameter names to tensors. Tensors are
// laid out in ascending name order, so the file layout is deterministic.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return w.WriteStateDictWithHeader(stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// WriteStateDictWithHeader writes a state dictionary with a custom header.
//
// This allows attaching a model configuration blob and custom metadata.
// The header's FormatVersion selects the layout; zero means v2.
func (w *Writer) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	if header.FormatVersion == 0 {
		header.FormatVersion = FormatVersionV2
	}
	header.PrismVersion = prismVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	order := sortedTensorNames(stateDict)
	header.Tensors = buildTensorMetas(stateDict, order)

	switch header.FormatVersion {
	case FormatVersionV1:
		return writeV1(w.file, header, stateDict, order)
	case FormatVersionV2:
		return w.writeV2(header, stateDict, order)
	default:
		return fmt.Errorf("%w: cannot write version %d", ErrUnsupportedVersion, header.FormatVersion)
	}
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// sortedTensorNames returns the state dict keys in ascending order.
// The sequential ReadFrom path depends on offsets increasing in write order.
func sortedTensorNames(stateDict map[string]*tensor.RawTensor) []string {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildTensorMetas computes the tensor metadata table with contiguous offsets.
func buildTensorMetas(stateDict map[string]*tensor.RawTensor, order []string) []TensorMeta {
	metas := make([]TensorMeta, 0, len(order))
	var offset int64
	for _, name := range order {
		raw := stateDict[name]
		size := int64(raw.NumElements() * raw.DType().Size())
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}
	return metas
}

// headerFlags derives the flags bitfield from the header contents.
func headerFlags(header Header) uint32 {
	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if len(header.Config) > 0 {
		flags |= FlagHasConfig
	}
	return flags
}

// alignmentPadding returns the number of zero bytes needed after pos to reach
// the next HeaderAlignment boundary.
func alignmentPadding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}

// writeV1 writes the v1 layout: magic, version, flags, header size, JSON
// header, padding, tensor data. Needs no seeking, so it works on any io.Writer.
func writeV1(out io.Writer, header Header, stateDict map[string]*tensor.RawTensor, order []string) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := out.Write([]byte(MagicBytes)); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint32(FormatVersionV1)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, headerFlags(header)); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	headerSize := uint64(len(headerJSON))
	if err := binary.Write(out, binary.LittleEndian, headerSize); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// magic + version + flags + headerSize + header
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	padding := alignmentPadding(int64(4+4+4+8) + int64(headerSize))
	if padding > 0 {
		if _, err := out.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	for _, name := range order {
		if _, err := out.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}

	return nil
}

// writeV2 writes the v2 layout: 64-byte fixed header carrying a SHA-256
// checksum of the tensor data, JSON header, padding, tensor data.
func (w *Writer) writeV2(header Header, stateDict map[string]*tensor.RawTensor, order []string) error {
	// Collect all tensor data to compute the checksum
	var tensorData []byte
	for _, name := range order {
		tensorData = append(tensorData, stateDict[name].Data()...)
	}
	checksum := ComputeChecksum(tensorData)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	headerSize := uint64(len(headerJSON))
	dataSize := uint64(len(tensorData))

	fixed := make([]byte, FixedHeaderSizeV2)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersionV2))
	binary.LittleEndian.PutUint32(fixed[8:12], headerFlags(header))
	// 0x0C-0x0F reserved, zero from make()
	binary.LittleEndian.PutUint64(fixed[16:24], headerSize)
	binary.LittleEndian.PutUint64(fixed[24:32], dataSize)
	copy(fixed[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	padding := alignmentPadding(int64(FixedHeaderSizeV2) + int64(headerSize))
	if padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// WriteTo writes a state dictionary to an io.Writer using the v1 layout.
// This is useful for writing to buffers or network connections.
func WriteTo(out io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersionV1,
		PrismVersion:  prismVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	order := sortedTensorNames(stateDict)
	header.Tensors = buildTensorMetas(stateDict, order)

	return writeV1(out, header, stateDict, order)
}
