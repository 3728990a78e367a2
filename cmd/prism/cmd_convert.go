package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/backend/cpu"
	"github.com/prism-ml/prism/encoder"
	"github.com/prism-ml/prism/internal/serialization"
	"github.com/prism-ml/prism/loader"
)

// convertCmd repackages checkpoints into the native container
var convertCmd = &cobra.Command{
	Use:   "convert <in.safetensors> <out.prism>",
	Short: "Convert a safetensors checkpoint to the .prism format",
	Long: `Reads a safetensors checkpoint, translates HuggingFace BERT-family
weight names to the canonical layout, and writes a single .prism file
with the model configuration embedded in its header. A config.json next
to the input supplies the architecture.

The result is self-contained: prism --model out.prism needs no separate
config file.

Example:
  prism convert ./bert-base-uncased/model.safetensors bert.prism`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	if !strings.HasSuffix(out, ".prism") {
		return fmt.Errorf("output must end in .prism, got %s", out)
	}

	model, err := loader.OpenModel(in)
	if err != nil {
		return err
	}
	defer model.Close()

	cfg, err := resolveModelConfig(model, filepath.Dir(in))
	if err != nil {
		return err
	}

	backend := cpu.New()
	stateDict, err := model.StateDict(backend)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}
	if model.Naming() == loader.NamingHuggingFace {
		stateDict = encoder.TranslateHFKeys(stateDict)
	}

	// Round-tripping through an encoder validates every shape and keeps
	// only the weights the architecture uses; pooler heads and other
	// task-specific tensors do not survive into the output.
	enc, err := encoder.New(cfg, backend)
	if err != nil {
		return err
	}
	if err := enc.LoadStateDict(stateDict); err != nil {
		return fmt.Errorf("checkpoint does not match its config: %w", err)
	}

	rawCfg, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	writer, err := serialization.NewWriter(out)
	if err != nil {
		return err
	}
	canonical := enc.StateDict()
	if err := writer.WriteStateDictWithHeader(canonical, serialization.Header{
		ModelType: "Encoder",
		Config:    rawCfg,
		Metadata: map[string]string{
			"converted_from": filepath.Base(in),
		},
	}); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d tensors, %d parameters)\n", out, len(canonical), enc.NumParameters())
	return nil
}
