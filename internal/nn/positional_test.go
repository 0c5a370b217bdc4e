package nn

import (
	"errors"
	"math"
	"testing"

	"github.com/strand-ml/strand/internal/backend/cpu"
	"github.com/strand-ml/strand/internal/tensor"
)

func TestSinusoidalPositionalEncoding_PositionZero(t *testing.T) {
	backend := cpu.New()
	pe, err := NewSinusoidalPositionalEncoding(16, 8, backend)
	if err != nil {
		t.Fatalf("Failed to create encoding: %v", err)
	}

	out, err := pe.Forward(1, 0)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	// At position 0: sin(0) = 0 for even dims, cos(0) = 1 for odd dims
	data := out.Data()
	for i := 0; i < 8; i++ {
		expected := float32(0)
		if i%2 == 1 {
			expected = 1
		}
		if data[i] != expected {
			t.Errorf("Dim %d at position 0: got %v, expected %v", i, data[i], expected)
		}
	}
}

func TestSinusoidalPositionalEncoding_Interleaving(t *testing.T) {
	backend := cpu.New()
	dim := 6
	pe, err := NewSinusoidalPositionalEncoding(4, dim, backend)
	if err != nil {
		t.Fatalf("Failed to create encoding: %v", err)
	}

	out, err := pe.Forward(2, 0)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	// Position 1: pairs (2k, 2k+1) share the angle 1 / 10000^(2k/dim)
	data := out.Data()[dim:]
	for k := 0; k < dim/2; k++ {
		angle := 1.0 / math.Pow(10000, float64(2*k)/float64(dim))
		wantSin := float32(math.Sin(angle))
		wantCos := float32(math.Cos(angle))

		if got := data[2*k]; math.Abs(float64(got-wantSin)) > 1e-6 {
			t.Errorf("Dim %d: got %v, expected sin %v", 2*k, got, wantSin)
		}
		if got := data[2*k+1]; math.Abs(float64(got-wantCos)) > 1e-6 {
			t.Errorf("Dim %d: got %v, expected cos %v", 2*k+1, got, wantCos)
		}
	}
}

func TestSinusoidalPositionalEncoding_Offset(t *testing.T) {
	backend := cpu.New()
	pe, err := NewSinusoidalPositionalEncoding(10, 4, backend)
	if err != nil {
		t.Fatalf("Failed to create encoding: %v", err)
	}

	full, err := pe.Forward(10, 0)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	window, err := pe.Forward(3, 5)
	if err != nil {
		t.Fatalf("Forward with offset failed: %v", err)
	}

	if !window.Shape().Equal(tensor.Shape{3, 4}) {
		t.Fatalf("Expected shape [3, 4], got %v", window.Shape())
	}
	// Rows 5..7 of the full table
	assertClose(t, window.Data(), full.Data()[5*4:8*4], 0)
}

func TestSinusoidalPositionalEncoding_Deterministic(t *testing.T) {
	backend := cpu.New()
	pe, err := NewSinusoidalPositionalEncoding(8, 4, backend)
	if err != nil {
		t.Fatalf("Failed to create encoding: %v", err)
	}

	a, err := pe.Forward(5, 2)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	b, err := pe.Forward(5, 2)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	assertClose(t, a.Data(), b.Data(), 0)
}

func TestSinusoidalPositionalEncoding_RangeError(t *testing.T) {
	backend := cpu.New()
	pe, err := NewSinusoidalPositionalEncoding(16, 4, backend)
	if err != nil {
		t.Fatalf("Failed to create encoding: %v", err)
	}

	tests := []struct {
		name           string
		seqLen, offset int
	}{
		{"beyond capacity", 17, 0},
		{"offset pushes past capacity", 10, 8},
		{"zero length", 0, 0},
		{"negative offset", 4, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pe.Forward(tt.seqLen, tt.offset)
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Errorf("Expected RangeError, got %v", err)
			}
		})
	}

	// The boundary itself is valid
	if _, err := pe.Forward(16, 0); err != nil {
		t.Errorf("Full capacity request failed: %v", err)
	}
}

func TestSinusoidalPositionalEncoding_InvalidConfig(t *testing.T) {
	backend := cpu.New()

	var cfgErr *ConfigError
	if _, err := NewSinusoidalPositionalEncoding(0, 4, backend); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for maxLen=0, got %v", err)
	}
	if _, err := NewSinusoidalPositionalEncoding(16, 0, backend); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for dim=0, got %v", err)
	}
}
