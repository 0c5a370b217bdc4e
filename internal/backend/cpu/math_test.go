package cpu

import (
	"math"
	"testing"

	"github.com/strand-ml/strand/internal/tensor"
)

func TestSoftmax_LastDim(t *testing.T) {
	backend := New()

	// softmax([0, ln 2]) = [1/3, 2/3]
	x := fromSlice(t, []float32{0, float32(math.Log(2)), 0, 0}, tensor.Shape{2, 2}, backend)

	y := x.Softmax(-1)

	assertClose(t, y.Data(), []float32{1.0 / 3, 2.0 / 3, 0.5, 0.5}, 1e-6)
}

func TestSoftmax_SumsToOne(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{
		1, 2, 3, 4,
		-1, 0, 1, 2,
	}, tensor.Shape{2, 4}, backend)

	y := x.Softmax(-1)

	data := y.Data()
	for row := 0; row < 2; row++ {
		var sum float32
		for col := 0; col < 4; col++ {
			v := data[row*4+col]
			if v < 0 || v > 1 {
				t.Errorf("Softmax value out of [0, 1]: %v", v)
			}
			sum += v
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("Row %d sums to %v, expected 1", row, sum)
		}
	}
}

func TestSoftmax_NumericalStability(t *testing.T) {
	backend := New()

	// Large values must not overflow to NaN/Inf
	x := fromSlice(t, []float32{1000, 1001, 1002}, tensor.Shape{1, 3}, backend)

	y := x.Softmax(-1)

	var sum float32
	for _, v := range y.Data() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Softmax produced non-finite value %v", v)
		}
		sum += v
	}
	if math.Abs(float64(sum-1)) > 1e-5 {
		t.Errorf("Sum is %v, expected 1", sum)
	}
}

func TestSoftmax_InnerDim(t *testing.T) {
	backend := New()

	// Softmax along dim 0 of a [2, 2] tensor normalizes columns
	x := fromSlice(t, []float32{
		0, 0,
		float32(math.Log(2)), 0,
	}, tensor.Shape{2, 2}, backend)

	y := x.Softmax(0)

	assertClose(t, y.Data(), []float32{
		1.0 / 3, 0.5,
		2.0 / 3, 0.5,
	}, 1e-6)
}

func TestMeanDim_LastKeepDim(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	m := x.MeanDim(-1, true)

	if !m.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("Expected shape [2, 1], got %v", m.Shape())
	}
	assertClose(t, m.Data(), []float32{2, 5}, 1e-6)
}

func TestMeanDim_FirstNoKeepDim(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	m := x.MeanDim(0, false)

	if !m.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("Expected shape [3], got %v", m.Shape())
	}
	assertClose(t, m.Data(), []float32{2.5, 3.5, 4.5}, 1e-6)
}

func TestEmbedding_Lookup(t *testing.T) {
	backend := New()

	weight := fromSlice(t, []float32{
		0, 0, // row 0
		1, 1, // row 1
		2, 2, // row 2
		3, 3, // row 3
	}, tensor.Shape{4, 2}, backend)

	indices, err := tensor.FromSlice([]int32{3, 1, 1, 0}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("Failed to create indices: %v", err)
	}

	out := weight.Embedding(indices)

	if !out.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("Expected shape [2, 2, 2], got %v", out.Shape())
	}
	assertClose(t, out.Data(), []float32{3, 3, 1, 1, 1, 1, 0, 0}, 0)
}

func TestEmbedding_OutOfBoundsPanics(t *testing.T) {
	backend := New()
	weight := fromSlice(t, []float32{0, 0, 1, 1}, tensor.Shape{2, 2}, backend)
	indices, err := tensor.FromSlice([]int32{5}, tensor.Shape{1, 1}, backend)
	if err != nil {
		t.Fatalf("Failed to create indices: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for out-of-bounds index")
		}
	}()
	weight.Embedding(indices)
}

func TestActivations(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{-2, -1, 0, 1, 2}, tensor.Shape{5}, backend)

	relu := tensor.New[float32](backend.Relu(x.Raw()), backend)
	assertClose(t, relu.Data(), []float32{0, 0, 0, 1, 2}, 0)

	// GELU(x) = x * Phi(x) with the exact Gaussian CDF
	gelu := tensor.New[float32](backend.Gelu(x.Raw()), backend)
	assertClose(t, gelu.Data(), []float32{-0.04550026, -0.15865526, 0, 0.84134474, 1.95449974}, 1e-5)

	// SiLU(x) = x * sigmoid(x)
	silu := tensor.New[float32](backend.Silu(x.Raw()), backend)
	assertClose(t, silu.Data(), []float32{-0.23840584, -0.26894143, 0, 0.7310586, 1.7615942}, 1e-5)

	tanh := tensor.New[float32](backend.Tanh(x.Raw()), backend)
	assertClose(t, tanh.Data(), []float32{-0.9640276, -0.7615942, 0, 0.7615942, 0.9640276}, 1e-5)
}
