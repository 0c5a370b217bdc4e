package nn

import (
	"github.com/strand-ml/strand/internal/tensor"
)

// Parameter represents a learned parameter of the encoder.
//
// Parameters are constructed once at model-build time and are read-only
// during forward computation, so arbitrarily many concurrent forward calls
// may share them without locking.
type Parameter[B tensor.Backend] struct {
	name   string // fully qualified checkpoint name, e.g. "layers.0.fc1.weight"
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the fully qualified parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}
