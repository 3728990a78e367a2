package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prism-ml/prism/backend/cpu"
	"github.com/prism-ml/prism/encoder"
	"github.com/prism-ml/prism/internal/serialization"
	"github.com/prism-ml/prism/loader"
	"github.com/prism-ml/prism/tensor"
)

// resetFlags snapshots the global flag state and restores it when the test
// ends, so tests can mutate globals the way flag parsing would.
func resetFlags(t *testing.T) {
	t.Helper()
	oldModel, oldPreset, oldRandom := modelPath, preset, randomInit
	oldSeed, oldEncoding, oldConfig, oldText := seed, encoding, configPath, text
	t.Cleanup(func() {
		modelPath, preset, randomInit = oldModel, oldPreset, oldRandom
		seed, encoding, configPath, text = oldSeed, oldEncoding, oldConfig, oldText
	})
	// Point at a nonexistent config so a prism.yaml in the working
	// directory cannot leak into tests.
	configPath = filepath.Join(t.TempDir(), "no-such-prism.yaml")
}

func shapesMatch(a, b tensor.Shape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRootCommandWiring(t *testing.T) {
	want := []string{"attention", "convert", "encode", "explore", "positional", "tokenize", "version"}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestPresetConfig(t *testing.T) {
	cases := []struct {
		name   string
		dModel int
		layers int
	}{
		{"tiny", 64, 2},
		{"base", 512, 6},
		{"bert-base", 768, 12},
	}
	for _, tc := range cases {
		cfg, err := presetConfig(tc.name)
		if err != nil {
			t.Fatalf("presetConfig(%q): %v", tc.name, err)
		}
		if cfg.DModel != tc.dModel || cfg.NumLayers != tc.layers {
			t.Errorf("presetConfig(%q) = d_model %d, layers %d; want %d, %d",
				tc.name, cfg.DModel, cfg.NumLayers, tc.dModel, tc.layers)
		}
	}

	if _, err := presetConfig("huge"); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}

func TestFindWeights(t *testing.T) {
	dir := t.TempDir()
	if _, err := findWeights(dir); err == nil {
		t.Error("expected an error for an empty model directory")
	}

	prism := filepath.Join(dir, "model.prism")
	if err := os.WriteFile(prism, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := findWeights(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != prism {
		t.Errorf("findWeights = %q, want %q", got, prism)
	}

	// safetensors wins when both are present.
	st := filepath.Join(dir, "model.safetensors")
	if err := os.WriteFile(st, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = findWeights(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != st {
		t.Errorf("findWeights = %q, want %q", got, st)
	}
}

func TestNewSessionRandomTiny(t *testing.T) {
	resetFlags(t)
	randomInit = true

	s, err := newSession(rootCmd)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if diff := cmp.Diff(encoder.ConfigTiny(), s.cfg); diff != "" {
		t.Fatalf("resolved config mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(s.source, "random weights") {
		t.Errorf("source = %q, want a random-weights description", s.source)
	}

	// The dynamic tokenizer wraps the three words with <bos>/<eos>.
	ids, labels, err := s.encode("hello world hello")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(ids) != 5 || len(labels) != 5 {
		t.Fatalf("got %d ids and %d labels, want 5 each", len(ids), len(labels))
	}
	if labels[0] != "<bos>" || labels[4] != "<eos>" {
		t.Errorf("labels = %v, want <bos> ... <eos> framing", labels)
	}
	if ids[1] != ids[3] {
		t.Errorf("repeated word got ids %d and %d", ids[1], ids[3])
	}

	out := s.enc.Forward(s.idsTensor(ids))
	if want := (tensor.Shape{1, 5, 64}); !shapesMatch(out.Shape(), want) {
		t.Errorf("output shape = %v, want %v", out.Shape(), want)
	}
}

func TestSessionEncodeTooLong(t *testing.T) {
	resetFlags(t)
	randomInit = true

	s, err := newSession(rootCmd)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}

	long := strings.TrimSpace(strings.Repeat("word ", 200))
	if _, _, err := s.encode(long); err == nil || !strings.Contains(err.Error(), "max_len") {
		t.Fatalf("want a max_len error for 200 tokens, got %v", err)
	}
}

func TestNewTokenizerOnlyRandom(t *testing.T) {
	resetFlags(t)
	randomInit = true

	tok, err := newTokenizerOnly(rootCmd)
	if err != nil {
		t.Fatalf("newTokenizerOnly: %v", err)
	}
	if tok.VocabSize() != 1000 {
		t.Errorf("vocab size = %d, want the tiny preset's 1000", tok.VocabSize())
	}

	ids, err := tok.Encode("a b a")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != ids[2] {
		t.Errorf("ids = %v, want three ids with the repeat shared", ids)
	}
}

func TestRunEncode(t *testing.T) {
	resetFlags(t)
	randomInit = true
	text = "the cat sat"

	if err := runEncode(rootCmd, nil); err != nil {
		t.Fatalf("runEncode: %v", err)
	}
}

func TestRunAttention(t *testing.T) {
	resetFlags(t)
	oldOut, oldLayer, oldHead := attnOut, attnLayer, attnHead
	t.Cleanup(func() { attnOut, attnLayer, attnHead = oldOut, oldLayer, oldHead })

	randomInit = true
	text = "one two three"
	attnOut = t.TempDir()
	attnLayer, attnHead = -1, -1

	if err := runAttention(rootCmd, nil); err != nil {
		t.Fatalf("runAttention: %v", err)
	}

	// Tiny preset: 2 layers x 4 heads, plus the grid and the report.
	for _, name := range []string{
		"attention_l0_h0.png",
		"attention_l1_h3.png",
		"attention_grid.png",
		"attention.html",
	} {
		if _, err := os.Stat(filepath.Join(attnOut, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	attnLayer = 5
	if err := runAttention(rootCmd, nil); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("want an out-of-range error for layer 5, got %v", err)
	}
}

func TestRunPositional(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()

	oldDim, oldLen, oldOut, oldCSV := posDim, posLen, posOut, posCSV
	t.Cleanup(func() { posDim, posLen, posOut, posCSV = oldDim, oldLen, oldOut, oldCSV })

	posDim, posLen = 16, 32
	posOut = filepath.Join(dir, "pe.png")
	posCSV = filepath.Join(dir, "pe.csv")

	if err := runPositional(positionalCmd, nil); err != nil {
		t.Fatalf("runPositional: %v", err)
	}
	for _, p := range []string{posOut, posCSV} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing artifact %s: %v", p, err)
		}
	}

	posDim = 15
	if err := runPositional(positionalCmd, nil); err == nil {
		t.Error("expected an error for an odd dimension")
	}
}

func TestRunConvertRoundTrip(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()

	// Build a tiny encoder and lay it out like a downloaded model
	// directory: safetensors weights plus a HuggingFace config.json.
	tensor.Seed(1)
	backend := cpu.New()
	src, err := encoder.New(encoder.ConfigTiny(), backend)
	if err != nil {
		t.Fatal(err)
	}

	stPath := filepath.Join(dir, "model.safetensors")
	w, err := serialization.NewSafeTensorsWriter(stPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteStateDict(src.StateDict(), nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	hfConfig := `{
		"vocab_size": 1000,
		"hidden_size": 64,
		"num_attention_heads": 4,
		"num_hidden_layers": 2,
		"intermediate_size": 256,
		"max_position_embeddings": 128,
		"hidden_act": "relu"
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(hfConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "converted.prism")
	if err := runConvert(convertCmd, []string{stPath, outPath}); err != nil {
		t.Fatalf("runConvert: %v", err)
	}

	model, err := loader.OpenModel(outPath)
	if err != nil {
		t.Fatalf("opening converted checkpoint: %v", err)
	}
	defer model.Close()

	if model.Format() != loader.FormatPrism {
		t.Errorf("format = %v, want %v", model.Format(), loader.FormatPrism)
	}
	if model.ModelType() != "Encoder" {
		t.Errorf("model type = %q, want %q", model.ModelType(), "Encoder")
	}
	if model.Config() == nil {
		t.Error("converted checkpoint should embed its config")
	}
	if model.Naming() != loader.NamingCanonical {
		t.Errorf("naming = %v, want canonical", model.Naming())
	}

	if err := runConvert(convertCmd, []string{stPath, filepath.Join(dir, "bad.txt")}); err == nil {
		t.Error("expected an error for a non-.prism output path")
	}
}
