package nn

import (
	"github.com/strand-ml/strand/internal/tensor"
)

// LayerNorm applies Layer Normalization over the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Mean and variance are computed per position across the feature dimension.
// The scale parameter is named "weight" and the shift "bias" to match the
// serialized checkpoint convention.
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model], checkpoint name "weight"
	Beta    *Parameter[B] // learnable shift [d_model], checkpoint name "bias"
	Epsilon float32
	backend B
}

// NewLayerNorm creates a new LayerNorm layer under the given naming scope.
// Gamma is initialized to ones, beta to zeros.
func NewLayerNorm[B tensor.Backend](scope Scope, normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	gamma := Ones(tensor.Shape{normalizedShape}, backend)
	beta := Zeros(tensor.Shape{normalizedShape}, backend)

	return &LayerNorm[B]{
		Gamma:   NewParameter(scope.Name("weight"), gamma),
		Beta:    NewParameter(scope.Name("bias"), beta),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Shapes:
//   - input: [..., d_model]
//   - output: [..., d_model]
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// mean along the last dimension (keepdim)
	mean := x.MeanDim(-1, true)
	xCentered := x.Sub(mean)

	// variance = mean((x - mean)^2)
	variance := xCentered.Mul(xCentered).MeanDim(-1, true)

	// x_norm = x_centered / sqrt(variance + eps)
	rsqrtRaw := l.backend.Rsqrt(variance.AddScalar(l.Epsilon).Raw())
	rsqrt := tensor.New[float32, B](rsqrtRaw, l.backend)
	xNorm := xCentered.Mul(rsqrt)

	// Scale and shift; gamma/beta are [d_model], unsqueezed for broadcasting
	gamma := l.Gamma.Tensor()
	beta := l.Beta.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gamma = gamma.Unsqueeze(0)
		beta = beta.Unsqueeze(0)
	}

	return xNorm.Mul(gamma).Add(beta)
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
