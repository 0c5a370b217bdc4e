package nn

import (
	"fmt"

	"github.com/strand-ml/strand/internal/tensor"
)

// Activation selects the feed-forward activation function. The set is
// closed: configurations name one of the variants below and the concrete
// function is resolved once at construction time.
type Activation string

// Supported activation functions.
const (
	GELU Activation = "gelu"
	ReLU Activation = "relu"
	SiLU Activation = "silu"
	Tanh Activation = "tanh"
)

// Valid reports whether the activation names a supported variant.
// The empty string is valid and means "use the default" (GELU).
func (a Activation) Valid() bool {
	switch a {
	case "", GELU, ReLU, SiLU, Tanh:
		return true
	default:
		return false
	}
}

// Backend capability interfaces for activations. Backends advertise the
// activations they implement; resolution happens once per layer at
// construction, not per forward call.

// GeluBackend is implemented by backends that support GELU.
type GeluBackend interface {
	Gelu(*tensor.RawTensor) *tensor.RawTensor
}

// ReluBackend is implemented by backends that support ReLU.
type ReluBackend interface {
	Relu(*tensor.RawTensor) *tensor.RawTensor
}

// SiluBackend is implemented by backends that support SiLU.
type SiluBackend interface {
	Silu(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that support Tanh.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// activationFn is a resolved activation ready to apply to a tensor.
type activationFn[B tensor.Backend] func(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// resolveActivation builds the concrete activation function for a backend.
// The dispatch table is constructed here, once, rather than consulted on the
// forward path.
func resolveActivation[B tensor.Backend](a Activation, backend B) (activationFn[B], error) {
	if a == "" {
		a = GELU
	}

	table := map[Activation]func() (activationFn[B], bool){
		GELU: func() (activationFn[B], bool) {
			impl, ok := any(backend).(GeluBackend)
			if !ok {
				return nil, false
			}
			return func(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
				return tensor.New[float32, B](impl.Gelu(x.Raw()), backend)
			}, true
		},
		ReLU: func() (activationFn[B], bool) {
			impl, ok := any(backend).(ReluBackend)
			if !ok {
				return nil, false
			}
			return func(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
				return tensor.New[float32, B](impl.Relu(x.Raw()), backend)
			}, true
		},
		SiLU: func() (activationFn[B], bool) {
			impl, ok := any(backend).(SiluBackend)
			if !ok {
				return nil, false
			}
			return func(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
				return tensor.New[float32, B](impl.Silu(x.Raw()), backend)
			}, true
		},
		Tanh: func() (activationFn[B], bool) {
			impl, ok := any(backend).(TanhBackend)
			if !ok {
				return nil, false
			}
			return func(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
				return tensor.New[float32, B](impl.Tanh(x.Raw()), backend)
			}, true
		},
	}

	build, ok := table[a]
	if !ok {
		return nil, &ConfigError{Field: "activation", Reason: fmt.Sprintf("unsupported activation %q", a)}
	}
	fn, supported := build()
	if !supported {
		return nil, &ConfigError{Field: "activation", Reason: fmt.Sprintf("backend %s does not implement %q", backend.Name(), a)}
	}
	return fn, nil
}
