package cpu

import (
	"math"

	"github.com/strand-ml/strand/internal/tensor"
)

// Gelu applies the Gaussian Error Linear Unit in its exact (erf) form:
//
//	gelu(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
//
// This matches the default feed-forward activation of pretrained encoder
// checkpoints, which use the erf variant rather than the tanh approximation.
func (cpu *CPUBackend) Gelu(x *tensor.RawTensor) *tensor.RawTensor {
	invSqrt2 := 1.0 / math.Sqrt2
	return cpu.unaryOp("gelu", x, func(v float32) float32 {
		return float32(0.5 * float64(v) * (1 + math.Erf(float64(v)*invSqrt2)))
	})
}

// Relu applies the rectified linear unit: max(0, x).
func (cpu *CPUBackend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// Silu applies the sigmoid linear unit: x * sigmoid(x).
func (cpu *CPUBackend) Silu(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("silu", x, func(v float32) float32 {
		return float32(float64(v) / (1 + math.Exp(-float64(v))))
	})
}

// Tanh applies the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}
