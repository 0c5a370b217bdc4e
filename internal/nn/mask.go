package nn

import (
	"github.com/strand-ml/strand/internal/tensor"
)

// maskBias is the additive penalty for masked positions. Large enough that
// softmax drives their weight to effectively zero, small enough to avoid
// NaN from -Inf arithmetic.
const maskBias = float32(-1e9)

// ExpandMask converts a 0/1 attention mask [batch, seq_len] into an additive
// bias [batch, 1, 1, seq_len] for the attention score computation.
//
// Positions marked 1 contribute 0; positions marked 0 (padding) contribute a
// large negative bias so their post-softmax weight tends to zero. The two
// singleton dimensions broadcast over heads and query positions.
func ExpandMask[B tensor.Backend](mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := mask.Shape()
	batch, seqLen := shape[0], shape[1]

	bias := tensor.Zeros[float32](tensor.Shape{batch, 1, 1, seqLen}, mask.Backend())
	src := mask.Data()
	dst := bias.Data()

	for i, v := range src {
		if v == 0 {
			dst[i] = maskBias
		}
	}

	return bias
}
