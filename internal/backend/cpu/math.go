package cpu

import (
	"fmt"
	"math"

	"github.com/strand-ml/strand/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp("mulscalar", x, func(v float32) float32 { return v * scalar })
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp("addscalar", x, func(v float32) float32 { return v + scalar })
}

// Rsqrt computes the reciprocal square root element-wise.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", x, func(v float32) float32 {
		return float32(1.0 / math.Sqrt(float64(v)))
	})
}

// unaryOp applies an element-wise float32 function.
func (cpu *CPUBackend) unaryOp(name string, x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	for i := range src {
		dst[i] = op(src[i])
	}

	return result
}

// Softmax computes a numerically stable softmax along the given dimension.
// Negative dimensions count from the end.
//
// Only the last dimension needs a fast path for attention; other dimensions
// go through the generic strided loop.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("softmax: invalid dim %d for shape %v", dim, shape))
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()

	if dim == len(shape)-1 {
		rowLen := shape[dim]
		for start := 0; start < len(src); start += rowLen {
			softmaxRow(dst[start:start+rowLen], src[start:start+rowLen])
		}
		return result
	}

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	outer := x.NumElements() / dimSize

	row := make([]float32, dimSize)
	out := make([]float32, dimSize)
	for o := 0; o < outer; o++ {
		// Decompose o into the non-dim indices to find the row base offset.
		base := 0
		rem := o
		for d := len(shape) - 1; d >= 0; d-- {
			if d == dim {
				continue
			}
			base += (rem % shape[d]) * strides[d]
			rem /= shape[d]
		}
		for i := 0; i < dimSize; i++ {
			row[i] = src[base+i*dimStride]
		}
		softmaxRow(out, row)
		for i := 0; i < dimSize; i++ {
			dst[base+i*dimStride] = out[i]
		}
	}

	return result
}

// softmaxRow writes softmax(src) into dst, subtracting the max for stability.
func softmaxRow(dst, src []float32) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	sum := float32(0)
	for i, v := range src {
		e := float32(math.Exp(float64(v - maxVal)))
		dst[i] = e
		sum += e
	}

	inv := 1 / sum
	for i := range dst {
		dst[i] *= inv
	}
}

// MeanDim computes the mean along a dimension.
// Negative dimensions count from the end.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("meandim: invalid dim %d for shape %v", dim, shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("meandim: %v", err))
	}

	src := x.AsFloat32()
	dst := result.AsFloat32()
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	outer := x.NumElements() / dimSize
	invN := 1 / float32(dimSize)

	for o := 0; o < outer; o++ {
		base := 0
		rem := o
		for d := len(shape) - 1; d >= 0; d-- {
			if d == dim {
				continue
			}
			base += (rem % shape[d]) * strides[d]
			rem /= shape[d]
		}
		sum := float32(0)
		for i := 0; i < dimSize; i++ {
			sum += src[base+i*dimStride]
		}
		dst[o] = sum * invN
	}

	return result
}
