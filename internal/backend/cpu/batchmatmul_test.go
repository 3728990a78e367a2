package cpu

import (
	"testing"

	"github.com/prism-ml/prism/internal/parallel"
	"github.com/prism-ml/prism/internal/tensor"
)

func TestBatchMatMul_3D(t *testing.T) {
	backend := newTestBackend()

	// Two independent 2x2 products.
	a, _ := tensor.NewRaw(tensor.Shape{2, 2, 2}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 2, 2}, tensor.Float32, tensor.CPU)

	// Batch 0: [[1, 2], [3, 4]], batch 1: [[1, 0], [0, 1]]
	copy(a.AsFloat32(), []float32{1, 2, 3, 4, 1, 0, 0, 1})
	// Batch 0: [[5, 6], [7, 8]], batch 1: [[9, 8], [7, 6]]
	copy(b.AsFloat32(), []float32{5, 6, 7, 8, 9, 8, 7, 6})

	result := backend.BatchMatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("Expected shape [2, 2, 2], got %v", result.Shape())
	}

	// Batch 0 is the classic [[19, 22], [43, 50]]; batch 1 passes b through.
	expected := []float32{19, 22, 43, 50, 9, 8, 7, 6}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("BatchMatMul failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestBatchMatMul_4D(t *testing.T) {
	backend := newTestBackend()

	// Attention shape: [batch, heads, seq, dim] @ [batch, heads, dim, seq].
	a, _ := tensor.NewRaw(tensor.Shape{1, 2, 2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{1, 2, 3, 2}, tensor.Float32, tensor.CPU)

	aData := a.AsFloat32()
	for i := range aData {
		aData[i] = float32(i + 1)
	}
	bData := b.AsFloat32()
	for i := range bData {
		bData[i] = 1
	}

	result := backend.BatchMatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("Expected shape [1, 2, 2, 2], got %v", result.Shape())
	}

	// All-ones rhs turns each output entry into a row sum of a.
	expected := []float32{6, 6, 15, 15, 24, 24, 33, 33}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("BatchMatMul 4D failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestBatchMatMul_RectangularInner(t *testing.T) {
	backend := newTestBackend()

	// [1, 2, 3] @ [1, 3, 2] -> [1, 2, 2]
	a, _ := tensor.NewRaw(tensor.Shape{1, 2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{1, 3, 2}, tensor.Float32, tensor.CPU)
	copy(a.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})
	copy(b.AsFloat32(), []float32{7, 8, 9, 10, 11, 12})

	result := backend.BatchMatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Fatalf("Expected shape [1, 2, 2], got %v", result.Shape())
	}

	expected := []float32{58, 64, 139, 154}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("BatchMatMul failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestBatchMatMul_Float64(t *testing.T) {
	backend := newTestBackend()

	a, _ := tensor.NewRaw(tensor.Shape{1, 2, 2}, tensor.Float64, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{1, 2, 2}, tensor.Float64, tensor.CPU)
	copy(a.AsFloat64(), []float64{1, 2, 3, 4})
	copy(b.AsFloat64(), []float64{5, 6, 7, 8})

	result := backend.BatchMatMul(a, b)

	resultData := result.AsFloat64()
	expected := []float64{19, 22, 43, 50}
	for i := range expected {
		if resultData[i] != expected[i] {
			t.Errorf("Element %d: got %v, expected %v", i, resultData[i], expected[i])
		}
	}
}

func TestBatchMatMul_ParallelMatchesSequential(t *testing.T) {
	sequential := NewWithConfig(parallel.Config{Enabled: false})
	parallelBackend := NewWithConfig(parallel.Config{
		Enabled:      true,
		NumWorkers:   4,
		MinChunkSize: 1,
	})

	// batch*heads = 6 independent products.
	a, _ := tensor.NewRaw(tensor.Shape{2, 3, 5, 7}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 3, 7, 4}, tensor.Float32, tensor.CPU)

	aData := a.AsFloat32()
	for i := range aData {
		aData[i] = float32(i%11) - 5
	}
	bData := b.AsFloat32()
	for i := range bData {
		bData[i] = float32(i%5) - 2
	}

	seqResult := sequential.BatchMatMul(a, b)
	parResult := parallelBackend.BatchMatMul(a, b)

	seqData := seqResult.AsFloat32()
	parData := parResult.AsFloat32()
	for i := range seqData {
		if seqData[i] != parData[i] {
			t.Fatalf("Element %d: sequential %v != parallel %v", i, seqData[i], parData[i])
		}
	}
}

func TestBatchMatMul_BatchMismatchPanic(t *testing.T) {
	backend := newTestBackend()

	a, _ := tensor.NewRaw(tensor.Shape{2, 2, 2}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{3, 2, 2}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for batch dimension mismatch")
		}
	}()

	backend.BatchMatMul(a, b)
}

func TestBatchMatMul_InnerMismatchPanic(t *testing.T) {
	backend := newTestBackend()

	a, _ := tensor.NewRaw(tensor.Shape{2, 2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 4, 2}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for inner dimension mismatch")
		}
	}()

	backend.BatchMatMul(a, b)
}

func TestBatchMatMul_2DPanic(t *testing.T) {
	backend := newTestBackend()

	a, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for 2D input")
		}
	}()

	backend.BatchMatMul(a, b)
}

func BenchmarkBatchMatMul(b *testing.B) {
	backend := New()

	// Attention-sized workload: 8 batches x 12 heads of 64x64 @ 64x64.
	x, _ := tensor.NewRaw(tensor.Shape{8, 12, 64, 64}, tensor.Float32, tensor.CPU)
	y, _ := tensor.NewRaw(tensor.Shape{8, 12, 64, 64}, tensor.Float32, tensor.CPU)

	xData := x.AsFloat32()
	for i := range xData {
		xData[i] = float32(i % 100)
	}
	yData := y.AsFloat32()
	for i := range yData {
		yData[i] = float32(i % 50)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.BatchMatMul(x, y)
	}
}
