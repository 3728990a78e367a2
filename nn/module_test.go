// Copyright 2025 The Prism Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/prism-ml/prism/internal/backend/cpu"
	"github.com/prism-ml/prism/nn"
	"github.com/prism-ml/prism/tensor"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.Module[*cpu.CPUBackend]
	}{
		{
			name:   "Linear",
			module: nn.NewLinear(10, 5, backend),
		},
		{
			name:   "FFN",
			module: nn.NewFFN(10, 20, nn.ActReLU, backend),
		},
		{
			name:   "LayerNorm",
			module: nn.NewLayerNorm[*cpu.CPUBackend](10, 1e-5, backend),
		},
		{
			name:   "RMSNorm",
			module: nn.NewRMSNorm[*cpu.CPUBackend](10, 1e-5, backend),
		},
		{
			name:   "ReLU",
			module: nn.NewReLU[*cpu.CPUBackend](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Verify Forward works
			input := tensor.Randn[float32](tensor.Shape{2, 10}, backend)
			output := tt.module.Forward(input)
			if output == nil {
				t.Fatal("Forward() returned nil")
			}

			// Verify Parameters works
			params := tt.module.Parameters()
			if params == nil {
				t.Error("Parameters() returned nil, expected non-nil slice")
			}
		})
	}
}

// TestStateModuleInterface verifies parameterized modules expose state dicts.
func TestStateModuleInterface(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name   string
		module nn.StateModule
	}{
		{
			name:   "Linear",
			module: nn.NewLinear(10, 5, backend),
		},
		{
			name:   "Embedding",
			module: nn.NewEmbedding(100, 16, backend),
		},
		{
			name:   "MultiHeadAttention",
			module: nn.NewMultiHeadAttention[*cpu.CPUBackend](16, 4, backend),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stateDict := tt.module.StateDict()
			if len(stateDict) == 0 {
				t.Fatal("StateDict() returned empty map")
			}

			// Round-trip through the same module.
			if err := tt.module.LoadStateDict(stateDict); err != nil {
				t.Fatalf("LoadStateDict() failed: %v", err)
			}
		})
	}
}

// TestParameterInterface verifies Parameter accessors.
func TestParameterInterface(t *testing.T) {
	backend := cpu.New()
	tensorData := tensor.Randn[float32](tensor.Shape{3, 3}, backend)

	param := nn.NewParameter("test.weight", tensorData)

	if name := param.Name(); name != "test.weight" {
		t.Errorf("Name() = %q, want %q", name, "test.weight")
	}

	if got := param.Tensor(); got != tensorData {
		t.Error("Tensor() returned different tensor than provided")
	}

	if n := param.NumElements(); n != 9 {
		t.Errorf("NumElements() = %d, want 9", n)
	}
}

// TestNewParameter verifies parameter creation.
func TestNewParameter(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name        string
		paramName   string
		tensorShape tensor.Shape
	}{
		{
			name:        "weight parameter",
			paramName:   "layer1.weight",
			tensorShape: tensor.Shape{128, 784},
		},
		{
			name:        "bias parameter",
			paramName:   "layer1.bias",
			tensorShape: tensor.Shape{128},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensorData := tensor.Randn[float32](tt.tensorShape, backend)
			param := nn.NewParameter(tt.paramName, tensorData)

			if got := param.Name(); got != tt.paramName {
				t.Errorf("Name() = %q, want %q", got, tt.paramName)
			}

			if got := param.Tensor(); got != tensorData {
				t.Error("Tensor() returned different tensor")
			}
		})
	}
}

// TestSaveLoadRoundTrip verifies module persistence through .prism files.
func TestSaveLoadRoundTrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "linear.prism")

	src := nn.NewLinear(4, 3, backend)
	if err := nn.Save(src, path, "Linear", map[string]string{"note": "test"}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	dst := nn.NewLinear(4, 3, backend)
	header, err := nn.Load(path, backend, dst)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if header.ModelType != "Linear" {
		t.Errorf("header.ModelType = %q, want %q", header.ModelType, "Linear")
	}

	srcWeight := src.Weight().Tensor().Data()
	dstWeight := dst.Weight().Tensor().Data()
	for i := range srcWeight {
		if srcWeight[i] != dstWeight[i] {
			t.Fatalf("weight[%d] = %v after load, want %v", i, dstWeight[i], srcWeight[i])
		}
	}
}
