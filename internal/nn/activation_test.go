package nn

import (
	"errors"
	"testing"

	"github.com/strand-ml/strand/internal/backend/cpu"
	"github.com/strand-ml/strand/internal/tensor"
)

func TestActivation_Valid(t *testing.T) {
	for _, a := range []Activation{"", GELU, ReLU, SiLU, Tanh} {
		if !a.Valid() {
			t.Errorf("Activation %q should be valid", a)
		}
	}
	for _, a := range []Activation{"swish", "gelu_new", "GELU"} {
		if a.Valid() {
			t.Errorf("Activation %q should be invalid", a)
		}
	}
}

func TestResolveActivation_DefaultIsGELU(t *testing.T) {
	backend := cpu.New()

	fn, err := resolveActivation(Activation(""), backend)
	if err != nil {
		t.Fatalf("Failed to resolve default activation: %v", err)
	}

	x := fromSlice(t, []float32{-1, 0, 1}, tensor.Shape{3}, backend)
	out := fn(x)

	// GELU in its exact form
	assertClose(t, out.Data(), []float32{-0.15865526, 0, 0.84134474}, 1e-5)
}

func TestResolveActivation_AllVariants(t *testing.T) {
	backend := cpu.New()
	x := fromSlice(t, []float32{-1, 1}, tensor.Shape{2}, backend)

	tests := []struct {
		activation Activation
		expected   []float32
	}{
		{GELU, []float32{-0.15865526, 0.84134474}},
		{ReLU, []float32{0, 1}},
		{SiLU, []float32{-0.26894143, 0.7310586}},
		{Tanh, []float32{-0.7615942, 0.7615942}},
	}

	for _, tt := range tests {
		fn, err := resolveActivation(tt.activation, backend)
		if err != nil {
			t.Fatalf("Failed to resolve %q: %v", tt.activation, err)
		}
		assertClose(t, fn(x).Data(), tt.expected, 1e-5)
	}
}

func TestResolveActivation_UnknownFails(t *testing.T) {
	backend := cpu.New()

	_, err := resolveActivation(Activation("mish"), backend)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}
