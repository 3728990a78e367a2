package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prism-ml/prism/backend/cpu"
	"github.com/prism-ml/prism/encoder"
	"github.com/prism-ml/prism/internal/config"
	"github.com/prism-ml/prism/loader"
	"github.com/prism-ml/prism/tensor"
	"github.com/prism-ml/prism/tokenizer"
)

// session bundles the encoder and tokenizer a command operates on, resolved
// once from flags and the optional prism.yaml.
type session struct {
	enc     *encoder.Encoder[*cpu.Backend]
	tok     tokenizer.Tokenizer
	cfg     encoder.Config
	backend *cpu.Backend
	source  string
	file    *config.Config
}

// newSession resolves the model in precedence order: --model flag, then the
// model path from prism.yaml, then random weights from the preset. --random
// forces the last.
func newSession(cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	path := modelPath
	if path == "" {
		path = fileCfg.Model.Path
	}
	if randomInit {
		path = ""
	}

	if path != "" {
		return openCheckpoint(cmd, path, fileCfg)
	}
	return randomSession(cmd, fileCfg)
}

// randomSession builds an encoder with fresh random weights from a preset.
func randomSession(cmd *cobra.Command, fileCfg *config.Config) (*session, error) {
	pf := cmd.Root().PersistentFlags()

	pre := preset
	if !pf.Changed("preset") && fileCfg.Model.Preset != "" {
		pre = fileCfg.Model.Preset
	}
	sd := seed
	if !pf.Changed("seed") {
		sd = fileCfg.Model.Seed
	}

	cfg, err := presetConfig(pre)
	if err != nil {
		return nil, err
	}

	tok, err := randomTokenizer(cmd, &cfg)
	if err != nil {
		return nil, err
	}

	tensor.Seed(sd)
	backend := cpu.New()
	enc, err := encoder.New(cfg, backend)
	if err != nil {
		return nil, err
	}

	return &session{
		enc:     enc,
		tok:     tok,
		cfg:     cfg,
		backend: backend,
		source:  fmt.Sprintf("random weights (%s preset, seed %d)", pre, sd),
		file:    fileCfg,
	}, nil
}

// openCheckpoint loads weights, config and tokenizer from a checkpoint file
// or a model directory holding config.json plus the weight file.
func openCheckpoint(cmd *cobra.Command, path string, fileCfg *config.Config) (*session, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("model path: %w", err)
	}

	dir := filepath.Dir(path)
	weights := path
	if info.IsDir() {
		dir = path
		weights, err = findWeights(dir)
		if err != nil {
			return nil, err
		}
	}

	model, err := loader.OpenModel(weights)
	if err != nil {
		return nil, err
	}
	defer model.Close()

	cfg, err := resolveModelConfig(model, dir)
	if err != nil {
		return nil, err
	}

	backend := cpu.New()
	enc, err := encoder.New(cfg, backend)
	if err != nil {
		return nil, err
	}

	stateDict, err := model.StateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", weights, err)
	}
	if model.Naming() == loader.NamingHuggingFace {
		stateDict = encoder.TranslateHFKeys(stateDict)
	}
	if err := enc.LoadStateDict(stateDict); err != nil {
		return nil, fmt.Errorf("loading weights from %s: %w", weights, err)
	}

	tok, err := resolveTokenizer(cmd, dir, cfg, fileCfg)
	if err != nil {
		return nil, err
	}

	return &session{
		enc:     enc,
		tok:     tok,
		cfg:     cfg,
		backend: backend,
		source:  weights,
		file:    fileCfg,
	}, nil
}

// presetConfig maps a preset name to its architecture.
func presetConfig(name string) (encoder.Config, error) {
	switch name {
	case "tiny":
		return encoder.ConfigTiny(), nil
	case "base":
		return encoder.ConfigBase(), nil
	case "bert-base":
		return encoder.ConfigBERTBase(), nil
	default:
		return encoder.Config{}, fmt.Errorf("unknown preset %q, expected %q, %q or %q", name, "tiny", "base", "bert-base")
	}
}

// findWeights locates the weight file inside a model directory.
func findWeights(dir string) (string, error) {
	for _, name := range []string{"model.safetensors", "model.prism"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no model.safetensors or model.prism in %s", dir)
}

// resolveModelConfig takes the architecture from the checkpoint header when
// the container carries one, or from config.json next to the weights. The
// .prism header embeds the canonical config layout; config.json files use
// HuggingFace field names.
func resolveModelConfig(model loader.ModelReader, dir string) (encoder.Config, error) {
	if raw := model.Config(); raw != nil {
		var cfg encoder.Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return encoder.Config{}, fmt.Errorf("parsing embedded model config: %w", err)
		}
		return cfg, nil
	}

	cfgPath := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(cfgPath) //nolint:gosec // G304: model dir comes from user input, which is expected
	if err != nil {
		return encoder.Config{}, fmt.Errorf("checkpoint carries no model config and %s is unreadable: %w", cfgPath, err)
	}
	return encoder.ConfigFromJSON(data)
}

// resolveTokenizer prefers tokenizer files shipped with the model, then the
// configured tiktoken encoding.
func resolveTokenizer(cmd *cobra.Command, dir string, cfg encoder.Config, fileCfg *config.Config) (tokenizer.Tokenizer, error) {
	if dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "tokenizer.json")); err == nil {
			return tokenizer.LoadFromHuggingFace(dir)
		}
		if vocab := filepath.Join(dir, "vocab.txt"); fileExists(vocab) {
			return tokenizer.LoadWordPieceVocab(vocab)
		}
	}

	enc := encoding
	if !cmd.Root().PersistentFlags().Changed("encoding") {
		enc = fileCfg.Tokenizer.Encoding
	}
	if enc != "" {
		return tokenizer.NewTikToken(enc)
	}
	return tokenizer.NewDynamicTokenizer(cfg.VocabSize)
}

// randomTokenizer picks the tokenizer for random-weight runs. The tokenizer
// decides the vocabulary before weights exist: an explicit tiktoken encoding
// brings its own vocab size and may grow the config's, otherwise token ids
// are assigned on the fly within the preset's vocab.
func randomTokenizer(cmd *cobra.Command, cfg *encoder.Config) (tokenizer.Tokenizer, error) {
	if cmd.Root().PersistentFlags().Changed("encoding") {
		tt, err := tokenizer.NewTikToken(encoding)
		if err != nil {
			return nil, err
		}
		if tt.VocabSize() > cfg.VocabSize {
			cfg.VocabSize = tt.VocabSize()
		}
		return tt, nil
	}
	return tokenizer.NewDynamicTokenizer(cfg.VocabSize)
}

// newTokenizerOnly resolves just the tokenizer, skipping weight loading and
// encoder construction. Resolution order matches newSession.
func newTokenizerOnly(cmd *cobra.Command) (tokenizer.Tokenizer, error) {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	path := modelPath
	if path == "" {
		path = fileCfg.Model.Path
	}
	if randomInit {
		path = ""
	}

	pre := preset
	if !cmd.Root().PersistentFlags().Changed("preset") && fileCfg.Model.Preset != "" {
		pre = fileCfg.Model.Preset
	}
	cfg, err := presetConfig(pre)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return randomTokenizer(cmd, &cfg)
	}

	dir := filepath.Dir(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		dir = path
	}
	return resolveTokenizer(cmd, dir, cfg, fileCfg)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// encode tokenizes text, wraps it with the tokenizer's special tokens and
// validates it against the model's limits.
func (s *session) encode(text string) ([]int32, []string, error) {
	ids, err := s.tok.Encode(text)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizing: %w", err)
	}
	ids = tokenizer.AddSpecialTokens(s.tok, ids)
	if len(ids) == 0 {
		return nil, nil, fmt.Errorf("no tokens produced from %q", text)
	}
	if len(ids) > s.cfg.MaxLen {
		return nil, nil, fmt.Errorf("sequence length %d exceeds the model's max_len %d", len(ids), s.cfg.MaxLen)
	}
	for _, id := range ids {
		if int(id) >= s.cfg.VocabSize {
			return nil, nil, fmt.Errorf("token id %d out of range for vocab size %d: tokenizer and model do not match", id, s.cfg.VocabSize)
		}
	}

	labels, err := s.tok.DecodeTokens(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding token labels: %w", err)
	}
	return ids, labels, nil
}

// idsTensor shapes token ids as a single-row batch.
func (s *session) idsTensor(ids []int32) *tensor.Tensor[int32, *cpu.Backend] {
	t, err := tensor.FromSlice(ids, tensor.Shape{1, len(ids)}, s.backend)
	if err != nil {
		panic(err)
	}
	return t
}
