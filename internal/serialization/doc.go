// Package serialization implements the native .prism checkpoint format.
//
//	Format v2:
//	  [64-byte fixed header]
//	    0x00  magic "PRSM"
//	    0x04  version (uint32 LE)
//	    0x08  flags (uint32 LE)
//	    0x10  header size (uint64 LE)
//	    0x18  data size (uint64 LE)
//	    0x20  SHA-256 checksum of the tensor data
//	  [JSON header]
//	  [tensor data: raw bytes, 64-byte aligned]
//
// v1 files (20-byte prefix, no checksum) remain readable; WriteTo and
// ReadFrom use the v1 layout for seekless streaming.
//
// The JSON header carries tensor metadata, free-form string metadata, and an
// optional model configuration blob, so a checkpoint is self-describing:
// a reader can rebuild the model from the file alone.
//
// Example usage:
//
//	// Save a state dict
//	writer, err := serialization.NewWriter("model.prism")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := writer.WriteStateDict(stateDict, "TransformerEncoder", nil); err != nil {
//	    log.Fatal(err)
//	}
//	writer.Close()
//
//	// Load it back
//	reader, err := serialization.NewReader("model.prism")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stateDict, err := reader.ReadStateDict(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reader.Close()
//
// The package also exports a SafeTensors writer for interchange with
// HuggingFace tooling, and MmapReader for memory-mapped access to large
// checkpoints.
package serialization
