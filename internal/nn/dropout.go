package nn

import (
	"fmt"
	"math/rand"

	"github.com/strand-ml/strand/internal/tensor"
)

// Dropout applies inverted dropout as a pure function.
//
// In training mode each element is zeroed with probability p and survivors
// are scaled by 1/(1-p); in evaluation mode the input is returned unchanged.
// The random source is explicit so that forward calls carry no hidden state:
// concurrent calls use independent sources, and a fixed seed reproduces the
// same mask.
//
// rng may be nil when train is false or p is 0.
func Dropout[B tensor.Backend](x *tensor.Tensor[float32, B], p float32, train bool, rng *rand.Rand) *tensor.Tensor[float32, B] {
	if !train || p == 0 {
		return x
	}
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	if rng == nil {
		panic("Dropout: training mode requires a random source")
	}

	result := x.Clone()
	data := result.Data()
	scale := 1 / (1 - p)

	for i := range data {
		if rng.Float32() < p {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}

	return result
}
