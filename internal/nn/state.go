package nn

import (
	"fmt"

	"github.com/strand-ml/strand/internal/tensor"
)

// StateDict returns a map of fully qualified parameter names to raw tensors,
// e.g. "layers.0.self_attn.q_proj.weight". The names and shapes follow the
// pretrained checkpoint layout exactly, so weights exported from one map
// directly into the other. The on-disk serialization format is the caller's
// concern.
func (e *Encoder[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, p := range e.Parameters() {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict copies parameter values from a state dictionary into the
// encoder. Every encoder parameter must be present with a matching shape and
// dtype; extra entries in the dictionary are ignored.
func (e *Encoder[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range e.Parameters() {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("missing parameter %q in state dict", p.Name())
		}

		want := p.Tensor().Shape()
		if !raw.Shape().Equal(want) {
			return fmt.Errorf("parameter %q shape mismatch: expected %v, got %v", p.Name(), want, raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("parameter %q dtype mismatch: expected float32, got %v", p.Name(), raw.DType())
		}

		copy(p.Tensor().Data(), raw.AsFloat32())
	}
	return nil
}
