package cpu

import (
	"fmt"

	"github.com/strand-ml/strand/internal/parallel"
	"github.com/strand-ml/strand/internal/tensor"
)

// BatchMatMul performs batched matrix multiplication for 3D or 4D tensors.
//
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
//
// The leading (batch) dimensions of both tensors must match exactly.
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != len(bShape) || (len(aShape) != 3 && len(aShape) != 4) {
		panic(fmt.Sprintf("batchmatmul: expected matching 3D or 4D tensors, got %v and %v", aShape, bShape))
	}

	batchDims := len(aShape) - 2
	batch := 1
	for i := 0; i < batchDims; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimensions must match: %v vs %v", aShape, bShape))
		}
		batch *= aShape[i]
	}

	m, k := aShape[batchDims], aShape[batchDims+1]
	kb, n := bShape[batchDims], bShape[batchDims+1]
	if k != kb {
		panic(fmt.Sprintf("batchmatmul: inner dimensions must match: %v @ %v", aShape, bShape))
	}

	outShape := make(tensor.Shape, 0, len(aShape))
	outShape = append(outShape, aShape[:batchDims]...)
	outShape = append(outShape, m, n)

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("batchmatmul: %v", err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	out := result.AsFloat32()

	// Parallelize across matrices; each product runs sequentially.
	par := cpu.par
	par.MinItems = 1
	parallel.For(batch, par, func(bi int) {
		aMat := aData[bi*m*k : (bi+1)*m*k]
		bMat := bData[bi*k*n : (bi+1)*k*n]
		cMat := out[bi*m*n : (bi+1)*m*n]
		matmulFloat32(cMat, aMat, bMat, m, k, n)
	})

	return result
}
