package loader

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/prism-ml/prism/internal/backend/cpu"
	"github.com/prism-ml/prism/internal/serialization"
	"github.com/prism-ml/prism/internal/tensor"
)

// writePrismFixture writes a small canonical-named .prism checkpoint.
func writePrismFixture(t *testing.T, path string) {
	t.Helper()

	backend := cpu.New()

	embed, err := tensor.NewRaw(tensor.Shape{4, 2}, tensor.Float32, backend.Device())
	if err != nil {
		t.Fatalf("Failed to create embed tensor: %v", err)
	}
	embedData := embed.AsFloat32()
	for i := range embedData {
		embedData[i] = float32(i)
	}

	gamma, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	if err != nil {
		t.Fatalf("Failed to create gamma tensor: %v", err)
	}
	gamma.AsFloat32()[0] = 1.0
	gamma.AsFloat32()[1] = 1.0

	stateDict := map[string]*tensor.RawTensor{
		"embed.weight":     embed,
		"final_norm.gamma": gamma,
	}

	config, err := json.Marshal(map[string]int{"d_model": 2, "vocab_size": 4})
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}

	writer, err := serialization.NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer writer.Close()

	header := serialization.Header{
		ModelType: "TransformerEncoder",
		Metadata:  map[string]string{"source": "test"},
		Config:    config,
	}
	if err := writer.WriteStateDictWithHeader(stateDict, header); err != nil {
		t.Fatalf("WriteStateDictWithHeader failed: %v", err)
	}
}

func TestOpenModelPrism(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "model.prism")
	writePrismFixture(t, testFile)

	model, err := OpenModel(testFile)
	if err != nil {
		t.Fatalf("OpenModel failed: %v", err)
	}
	defer model.Close()

	if model.Format() != FormatPrism {
		t.Errorf("Expected format Prism, got %s", model.Format())
	}

	if model.ModelType() != "TransformerEncoder" {
		t.Errorf("Expected model type TransformerEncoder, got %q", model.ModelType())
	}

	if model.Naming() != NamingCanonical {
		t.Errorf("Expected canonical naming, got %s", model.Naming())
	}

	if model.Metadata()["source"] != "test" {
		t.Errorf("Expected source=test, got %q", model.Metadata()["source"])
	}

	// Embedded config should round-trip
	configJSON := model.Config()
	if configJSON == nil {
		t.Fatal("Expected embedded config, got nil")
	}
	var config map[string]int
	if err := json.Unmarshal(configJSON, &config); err != nil {
		t.Fatalf("Failed to unmarshal config: %v", err)
	}
	if config["d_model"] != 2 {
		t.Errorf("Expected d_model=2, got %d", config["d_model"])
	}

	names := model.TensorNames()
	if len(names) != 2 {
		t.Errorf("Expected 2 tensors, got %d", len(names))
	}

	backend := cpu.New()
	embed, err := model.LoadTensor("embed.weight", backend)
	if err != nil {
		t.Fatalf("LoadTensor failed: %v", err)
	}
	if embed.Shape()[0] != 4 || embed.Shape()[1] != 2 {
		t.Errorf("Expected shape [4, 2], got %v", embed.Shape())
	}
	if embed.AsFloat32()[3] != 3.0 {
		t.Errorf("Expected embed[3]=3.0, got %f", embed.AsFloat32()[3])
	}

	stateDict, err := model.StateDict(backend)
	if err != nil {
		t.Fatalf("StateDict failed: %v", err)
	}
	if len(stateDict) != 2 {
		t.Errorf("Expected 2 tensors in state dict, got %d", len(stateDict))
	}
	if _, ok := stateDict["final_norm.gamma"]; !ok {
		t.Error("Expected final_norm.gamma in state dict")
	}
}

func TestOpenModelSafeTensors(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "model.safetensors")

	backend := cpu.New()

	wordEmbed, err := tensor.NewRaw(tensor.Shape{4, 2}, tensor.Float32, backend.Device())
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}
	query, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, backend.Device())
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}

	stateDict := map[string]*tensor.RawTensor{
		"bert.embeddings.word_embeddings.weight":           wordEmbed,
		"bert.encoder.layer.0.attention.self.query.weight": query,
	}

	metadata := map[string]string{"model_type": "bert"}
	if err := serialization.WriteSafeTensors(testFile, stateDict, metadata); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	model, err := OpenModel(testFile)
	if err != nil {
		t.Fatalf("OpenModel failed: %v", err)
	}
	defer model.Close()

	if model.Format() != FormatSafeTensors {
		t.Errorf("Expected format SafeTensors, got %s", model.Format())
	}

	if model.ModelType() != "bert" {
		t.Errorf("Expected model type bert, got %q", model.ModelType())
	}

	// HuggingFace-style keys need translation before loading
	if model.Naming() != NamingHuggingFace {
		t.Errorf("Expected huggingface naming, got %s", model.Naming())
	}

	if model.Config() != nil {
		t.Error("Expected nil config for SafeTensors")
	}

	loaded, err := model.StateDict(backend)
	if err != nil {
		t.Fatalf("StateDict failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("Expected 2 tensors, got %d", len(loaded))
	}
}

func TestOpenModelUnsupportedExtension(t *testing.T) {
	_, err := OpenModel("model.bin")
	if err == nil {
		t.Fatal("Expected error for unsupported extension")
	}
}

func TestDetectNaming(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		expected Naming
	}{
		{
			name:     "canonical",
			names:    []string{"embed.weight", "layers.0.attn.wq.weight", "final_norm.gamma"},
			expected: NamingCanonical,
		},
		{
			name:     "canonical positions only",
			names:    []string{"pos.weight"},
			expected: NamingCanonical,
		},
		{
			name: "huggingface with bert prefix",
			names: []string{
				"bert.embeddings.word_embeddings.weight",
				"bert.encoder.layer.0.attention.self.query.weight",
			},
			expected: NamingHuggingFace,
		},
		{
			name: "huggingface without prefix",
			names: []string{
				"embeddings.word_embeddings.weight",
				"encoder.layer.0.intermediate.dense.weight",
			},
			expected: NamingHuggingFace,
		},
		{
			name:     "unknown",
			names:    []string{"foo", "bar.baz"},
			expected: NamingUnknown,
		},
		{
			name:     "empty",
			names:    nil,
			expected: NamingUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectNaming(tt.names)
			if got != tt.expected {
				t.Errorf("DetectNaming(%v) = %s, expected %s", tt.names, got, tt.expected)
			}
		})
	}
}

func TestNamingString(t *testing.T) {
	if NamingCanonical.String() != "canonical" {
		t.Errorf("Expected canonical, got %s", NamingCanonical.String())
	}
	if NamingHuggingFace.String() != "huggingface" {
		t.Errorf("Expected huggingface, got %s", NamingHuggingFace.String())
	}
	if NamingUnknown.String() != "unknown" {
		t.Errorf("Expected unknown, got %s", NamingUnknown.String())
	}
}
