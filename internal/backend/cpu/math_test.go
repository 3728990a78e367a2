package cpu

import (
	"math"
	"testing"

	"github.com/prism-ml/prism/internal/tensor"
)

func TestExp(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{0, 1, 2, -1})

	result := backend.Exp(x)

	resultData := result.AsFloat32()
	expected := []float32{
		1,
		float32(math.E),
		float32(math.Exp(2)),
		float32(math.Exp(-1)),
	}
	if !float32SliceEqual(resultData, expected) {
		t.Errorf("Exp failed: got %v, expected %v", resultData, expected)
	}
}

func TestLog(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{1, float32(math.E), 10})

	result := backend.Log(x)

	resultData := result.AsFloat32()
	expected := []float32{0, 1, float32(math.Log(10))}
	if !float32SliceEqual(resultData, expected) {
		t.Errorf("Log failed: got %v, expected %v", resultData, expected)
	}
}

func TestLogExpRoundtrip(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{0.5, 1.5, 3})

	result := backend.Log(backend.Exp(x))

	// log(exp(x)) == x up to float32 rounding.
	resultData := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		diff := float64(resultData[i] - v)
		if math.Abs(diff) > 1e-5 {
			t.Errorf("Roundtrip element %d: got %v, expected %v", i, resultData[i], v)
		}
	}
}

func TestLogNonPositivePanic(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{1, 0})

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for non-positive value")
		}
	}()

	backend.Log(x)
}

func TestSqrt(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{0, 1, 4, 9})

	result := backend.Sqrt(x)

	resultData := result.AsFloat32()
	expected := []float32{0, 1, 2, 3}
	if !float32SliceEqual(resultData, expected) {
		t.Errorf("Sqrt failed: got %v, expected %v", resultData, expected)
	}
}

func TestSqrtNegativePanic(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{-1, 1})

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for negative value")
		}
	}()

	backend.Sqrt(x)
}

func TestRsqrt(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{1, 4, 16})

	result := backend.Rsqrt(x)

	resultData := result.AsFloat32()
	expected := []float32{1, 0.5, 0.25}
	if !float32SliceEqual(resultData, expected) {
		t.Errorf("Rsqrt failed: got %v, expected %v", resultData, expected)
	}
}

func TestRsqrtNonPositivePanic(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, backend.Device())
	copy(x.AsFloat32(), []float32{0, 1})

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for non-positive value")
		}
	}()

	backend.Rsqrt(x)
}

func TestMathFloat64(t *testing.T) {
	backend := New()

	x, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, backend.Device())
	copy(x.AsFloat64(), []float64{1, 4, 9})

	sqrtResult := backend.Sqrt(x)
	sqrtData := sqrtResult.AsFloat64()
	if sqrtData[0] != 1 || sqrtData[1] != 2 || sqrtData[2] != 3 {
		t.Errorf("Float64 sqrt failed: got %v", sqrtData)
	}

	rsqrtResult := backend.Rsqrt(x)
	rsqrtData := rsqrtResult.AsFloat64()
	if rsqrtData[0] != 1 || rsqrtData[1] != 0.5 {
		t.Errorf("Float64 rsqrt failed: got %v", rsqrtData)
	}

	expResult := backend.Exp(x)
	if math.Abs(expResult.AsFloat64()[0]-math.E) > 1e-12 {
		t.Errorf("Float64 exp failed: got %v", expResult.AsFloat64()[0])
	}

	logResult := backend.Log(x)
	if math.Abs(logResult.AsFloat64()[1]-math.Log(4)) > 1e-12 {
		t.Errorf("Float64 log failed: got %v", logResult.AsFloat64()[1])
	}
}

func TestMathIntPanic(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, backend.Device())

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for int dtype")
		}
	}()

	backend.Exp(x)
}
