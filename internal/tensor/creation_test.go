package tensor

import (
	"math"
	"math/rand"
	"testing"
)

func TestZeros(t *testing.T) {
	backend := NewMockBackend()
	tensor := Zeros[float32](Shape{2, 3}, backend)

	assertEqualShape(t, Shape{2, 3}, tensor.Shape(), "Zeros shape")
	for i, v := range tensor.Data() {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestOnes(t *testing.T) {
	backend := NewMockBackend()
	tensor := Ones[float32](Shape{2, 2}, backend)

	for i, v := range tensor.Data() {
		if v != 1 {
			t.Errorf("element %d = %v, want 1", i, v)
		}
	}
}

func TestFull(t *testing.T) {
	backend := NewMockBackend()
	tensor := Full[float32](Shape{3}, 3.14, backend)

	for _, v := range tensor.Data() {
		assertEqualFloat32(t, 3.14, v, "Full element")
	}
}

func TestFullInt64(t *testing.T) {
	backend := NewMockBackend()
	tensor := Full[int64](Shape{4}, -7, backend)

	for i, v := range tensor.Data() {
		if v != -7 {
			t.Errorf("element %d = %v, want -7", i, v)
		}
	}
}

func TestRandnStatistics(t *testing.T) {
	backend := NewMockBackend()
	tensor := Randn[float32](Shape{10000}, backend)

	var sum, sumSq float64
	for _, v := range tensor.Data() {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(tensor.NumElements())
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	if math.Abs(mean) > 0.05 {
		t.Errorf("mean = %v, want ~0", mean)
	}
	if math.Abs(std-1) > 0.05 {
		t.Errorf("std = %v, want ~1", std)
	}
}

func TestRandnSourceDeterministic(t *testing.T) {
	backend := NewMockBackend()
	a := RandnSource[float32](Shape{16}, rand.New(rand.NewSource(42)), backend)
	b := RandnSource[float32](Shape{16}, rand.New(rand.NewSource(42)), backend)

	aData, bData := a.Data(), b.Data()
	for i := range aData {
		if aData[i] != bData[i] {
			t.Fatalf("element %d differs: %v vs %v", i, aData[i], bData[i])
		}
	}
}

func TestRandnIntPanics(t *testing.T) {
	backend := NewMockBackend()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for Randn[int32]")
		}
	}()
	Randn[int32](Shape{4}, backend)
}

func TestRandRange(t *testing.T) {
	backend := NewMockBackend()
	tensor := Rand[float32](Shape{1000}, backend)

	for i, v := range tensor.Data() {
		if v < 0 || v >= 1 {
			t.Errorf("element %d = %v, want in [0, 1)", i, v)
		}
	}
}

func TestArange(t *testing.T) {
	backend := NewMockBackend()
	tensor := Arange[int32](0, 5, backend)

	assertEqualShape(t, Shape{5}, tensor.Shape(), "Arange shape")
	for i, v := range tensor.Data() {
		if v != int32(i) {
			t.Errorf("element %d = %v, want %d", i, v, i)
		}
	}
}

func TestArangeFloat(t *testing.T) {
	backend := NewMockBackend()
	tensor := Arange[float32](2, 6, backend)

	want := []float32{2, 3, 4, 5}
	for i, v := range tensor.Data() {
		assertEqualFloat32(t, want[i], v, "Arange element")
	}
}

func TestArangeEmptyPanics(t *testing.T) {
	backend := NewMockBackend()
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for empty range")
		}
	}()
	Arange[int32](5, 5, backend)
}

func TestEye(t *testing.T) {
	backend := NewMockBackend()
	tensor := Eye[float32](3, backend)

	assertEqualShape(t, Shape{3, 3}, tensor.Shape(), "Eye shape")
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			assertEqualFloat32(t, want, tensor.At(i, j), "Eye element")
		}
	}
}
