package cpu

import (
	"math"
	"testing"

	"github.com/strand-ml/strand/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape, backend *CPUBackend) *tensor.Tensor[float32, *CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}
	return x
}

func assertClose(t *testing.T, got, expected []float32, tolerance float64) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Length mismatch: got %d, expected %d", len(got), len(expected))
	}
	for i := range expected {
		if math.Abs(float64(got[i]-expected[i])) > tolerance {
			t.Errorf("Element %d: got %v, expected %v", i, got[i], expected[i])
		}
	}
}

func TestAdd_SameShape(t *testing.T) {
	backend := New()
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2}, backend)

	c := a.Add(b)

	assertClose(t, c.Data(), []float32{11, 22, 33, 44}, 0)
}

func TestAdd_Broadcast(t *testing.T) {
	backend := New()

	// [2, 3] + [1, 3]: the row vector is added to each row
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	b := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{1, 3}, backend)

	c := a.Add(b)

	if !c.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Expected shape [2, 3], got %v", c.Shape())
	}
	assertClose(t, c.Data(), []float32{11, 22, 33, 14, 25, 36}, 0)
}

func TestAdd_Broadcast4D(t *testing.T) {
	backend := New()

	// The attention-bias pattern: [batch, heads, seq, seq] + [batch, 1, 1, seq]
	scores := fromSlice(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, tensor.Shape{1, 2, 2, 2}, backend)
	bias := fromSlice(t, []float32{0, -100}, tensor.Shape{1, 1, 1, 2}, backend)

	c := scores.Add(bias)

	assertClose(t, c.Data(), []float32{
		1, -98, 3, -96,
		5, -94, 7, -92,
	}, 0)
}

func TestSub_Mul_Div(t *testing.T) {
	backend := New()
	a := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{3}, backend)
	b := fromSlice(t, []float32{2, 4, 5}, tensor.Shape{3}, backend)

	assertClose(t, a.Sub(b).Data(), []float32{8, 16, 25}, 0)
	assertClose(t, a.Mul(b).Data(), []float32{20, 80, 150}, 0)
	assertClose(t, a.Div(b).Data(), []float32{5, 5, 6}, 0)
}

func TestScalarOps(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}, backend)

	assertClose(t, x.MulScalar(2).Data(), []float32{2, 4, 6}, 0)
	assertClose(t, x.AddScalar(0.5).Data(), []float32{1.5, 2.5, 3.5}, 0)
}

func TestRsqrt(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{4, 16, 0.25}, tensor.Shape{3}, backend)

	rsqrtRaw := backend.Rsqrt(x.Raw())
	got := tensor.New[float32](rsqrtRaw, backend).Data()

	assertClose(t, got, []float32{0.5, 0.25, 2}, 1e-6)
}

func TestReshape(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	y := x.Reshape(3, 2)

	if !y.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape [3, 2], got %v", y.Shape())
	}
	// Row-major order is preserved
	assertClose(t, y.Data(), []float32{1, 2, 3, 4, 5, 6}, 0)
}

func TestTranspose_2D(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)

	y := x.T()

	if !y.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Expected shape [3, 2], got %v", y.Shape())
	}
	assertClose(t, y.Data(), []float32{1, 4, 2, 5, 3, 6}, 0)
}

func TestTranspose_4D(t *testing.T) {
	backend := New()

	// The head-split pattern: [batch, seq, heads, head_dim] -> [batch, heads, seq, head_dim]
	x := fromSlice(t, []float32{
		// seq 0: head 0 = [1, 2], head 1 = [3, 4]
		1, 2, 3, 4,
		// seq 1: head 0 = [5, 6], head 1 = [7, 8]
		5, 6, 7, 8,
	}, tensor.Shape{1, 2, 2, 2}, backend)

	y := x.Transpose(0, 2, 1, 3)

	if !y.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("Expected shape [1, 2, 2, 2], got %v", y.Shape())
	}
	assertClose(t, y.Data(), []float32{
		// head 0: seq 0 = [1, 2], seq 1 = [5, 6]
		1, 2, 5, 6,
		// head 1: seq 0 = [3, 4], seq 1 = [7, 8]
		3, 4, 7, 8,
	}, 0)
}

func TestTranspose_Int32Panics(t *testing.T) {
	backend := New()
	x, err := tensor.FromSlice([]int32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for int32 transpose")
		}
	}()
	backend.Transpose(x.Raw(), 1, 0)
}

func TestUnsqueeze(t *testing.T) {
	backend := New()
	x := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}, backend)

	if got := x.Unsqueeze(0).Shape(); !got.Equal(tensor.Shape{1, 3}) {
		t.Errorf("Unsqueeze(0): expected [1, 3], got %v", got)
	}
	if got := x.Unsqueeze(1).Shape(); !got.Equal(tensor.Shape{3, 1}) {
		t.Errorf("Unsqueeze(1): expected [3, 1], got %v", got)
	}
}
