package nn

import (
	"math"

	"github.com/strand-ml/strand/internal/tensor"
)

// positionalBase is the frequency base of the sinusoidal encoding.
const positionalBase = 10000.0

// SinusoidalPositionalEncoding implements the fixed positional encoding
// from "Attention is All You Need" (Vaswani et al., 2017):
//
//	PE(pos, 2k)   = sin(pos / 10000^(2k/d))
//	PE(pos, 2k+1) = cos(pos / 10000^(2k/d))
//
// The table carries no learned state: the same (length, offset) inputs
// always produce the same output. Encodings are precomputed up to MaxLen at
// construction; requests beyond that capacity fail with a RangeError rather
// than silently truncating.
type SinusoidalPositionalEncoding[B tensor.Backend] struct {
	Encoding *tensor.Tensor[float32, B] // [MaxLen, Dim] precomputed table
	MaxLen   int
	Dim      int
	backend  B
}

// NewSinusoidalPositionalEncoding precomputes encodings up to maxLen.
func NewSinusoidalPositionalEncoding[B tensor.Backend](maxLen, dim int, backend B) (*SinusoidalPositionalEncoding[B], error) {
	if maxLen <= 0 {
		return nil, &ConfigError{Field: "max position embeddings", Reason: "must be positive"}
	}
	if dim <= 0 {
		return nil, &ConfigError{Field: "d_model", Reason: "must be positive"}
	}

	encoding := tensor.Zeros[float32](tensor.Shape{maxLen, dim}, backend)
	data := encoding.Data()

	for pos := 0; pos < maxLen; pos++ {
		for i := 0; i < dim; i++ {
			// angle = pos / 10000^(2k/dim) where k = i/2
			angle := float64(pos) / math.Pow(positionalBase, float64(2*(i/2))/float64(dim))

			idx := pos*dim + i
			if i%2 == 0 {
				data[idx] = float32(math.Sin(angle))
			} else {
				data[idx] = float32(math.Cos(angle))
			}
		}
	}

	return &SinusoidalPositionalEncoding[B]{
		Encoding: encoding,
		MaxLen:   maxLen,
		Dim:      dim,
		backend:  backend,
	}, nil
}

// Forward returns positional encodings for seqLen positions starting at the
// given offset, with shape [seqLen, Dim].
//
// Returns a RangeError when offset+seqLen exceeds the precomputed capacity.
func (s *SinusoidalPositionalEncoding[B]) Forward(seqLen, offset int) (*tensor.Tensor[float32, B], error) {
	if seqLen <= 0 || offset < 0 {
		return nil, &RangeError{Op: "positional encoding", Requested: offset + seqLen, Capacity: s.MaxLen}
	}
	if offset+seqLen > s.MaxLen {
		return nil, &RangeError{Op: "positional encoding", Requested: offset + seqLen, Capacity: s.MaxLen}
	}

	out := tensor.Zeros[float32](tensor.Shape{seqLen, s.Dim}, s.backend)
	copy(out.Data(), s.Encoding.Data()[offset*s.Dim:(offset+seqLen)*s.Dim])
	return out, nil
}
