package cpu

import (
	"fmt"

	"github.com/strand-ml/strand/internal/parallel"
	"github.com/strand-ml/strand/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Output rows are computed in parallel when the matrix is large enough.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions must match: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	out := result.AsFloat32()

	parallel.For(m, cpu.par, func(i int) {
		matmulRow(out[i*n:(i+1)*n], aData[i*k:(i+1)*k], bData, k, n)
	})
	return result
}

// matmulFloat32 computes C = A @ B sequentially. Used by the batched kernel,
// which parallelizes over matrices instead of rows.
func matmulFloat32(c, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		matmulRow(c[i*n:(i+1)*n], a[i*k:(i+1)*k], b, k, n)
	}
}

// matmulRow accumulates one output row with a kj loop order for cache
// locality, skipping zero multiplicands. The skip assumes finite inputs: a
// zero in A suppresses any NaN/Inf in the matching B row that a plain
// accumulate would propagate.
func matmulRow(cRow, aRow, b []float32, k, n int) {
	for p := 0; p < k; p++ {
		av := aRow[p]
		if av == 0 {
			continue
		}
		bRow := b[p*n : (p+1)*n]
		for j := range cRow {
			cRow[j] += av * bRow[j]
		}
	}
}
