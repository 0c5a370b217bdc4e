package nn

import (
	"math/rand"

	"github.com/strand-ml/strand/internal/tensor"
)

// EncoderLayer is one pre-norm transformer block: self-attention and a
// two-layer feed-forward sub-block, each normalized before the sub-block and
// wrapped in a residual connection.
//
//	x ─ norm_a ─ attn ─ dropout ─(+x)─ norm_b ─ fc1 ─ act ─ dropout ─ fc2 ─ dropout ─(+)─ out
//	│___________________________│ │_____________________________________________________│
//
// The composition order is a behavioral contract: the residual added after
// attention is the original, pre-normalization input, and the feed-forward
// residual base is saved before norm_b. Changing either breaks compatibility
// with pretrained parameters.
type EncoderLayer[B tensor.Backend] struct {
	selfAttn     *SelfAttention[B]
	selfAttnNorm *LayerNorm[B]
	fc1          *Linear[B]
	fc2          *Linear[B]
	finalNorm    *LayerNorm[B]

	activation        activationFn[B]
	dropout           float32
	activationDropout float32
}

// NewEncoderLayer creates one encoder layer under the given naming scope.
// Sub-module scopes (self_attn, self_attn_layer_norm, fc1, fc2,
// final_layer_norm) match the pretrained parameter layout.
func NewEncoderLayer[B tensor.Backend](scope Scope, config *EncoderConfig, backend B) (*EncoderLayer[B], error) {
	selfAttn, err := NewSelfAttention(
		scope.Sub("self_attn"),
		config.DModel,
		config.EncoderAttentionHeads,
		config.AttentionDropout,
		config.OutputAttentions,
		backend,
	)
	if err != nil {
		return nil, err
	}

	activation, err := resolveActivation(config.ActivationFunction, backend)
	if err != nil {
		return nil, err
	}

	eps := config.normEps()
	return &EncoderLayer[B]{
		selfAttn:          selfAttn,
		selfAttnNorm:      NewLayerNorm(scope.Sub("self_attn_layer_norm"), config.DModel, eps, backend),
		fc1:               NewLinear(scope.Sub("fc1"), config.DModel, config.EncoderFFNDim, backend),
		fc2:               NewLinear(scope.Sub("fc2"), config.EncoderFFNDim, config.DModel, backend),
		finalNorm:         NewLayerNorm(scope.Sub("final_layer_norm"), config.DModel, eps, backend),
		activation:        activation,
		dropout:           config.Dropout,
		activationDropout: config.ActivationDropout,
	}, nil
}

// Forward transforms a hidden-state tensor [batch, seq, d_model] into
// another of identical shape.
//
// Returns the transformed tensor and, when attention-weight output is
// enabled, the attention weights [batch, heads, seq, seq] (nil otherwise).
// The only side effect is consuming rng when train is true.
func (l *EncoderLayer[B]) Forward(
	x, attnBias *tensor.Tensor[float32, B],
	train bool,
	rng *rand.Rand,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	// Attention sub-block: pre-norm, residual from the unnormalized input
	normed := l.selfAttnNorm.Forward(x)
	attnOut, attnWeights, _ := l.selfAttn.Forward(normed, nil, attnBias, nil, train, rng)
	out := Dropout(attnOut, l.dropout, train, rng).Add(x)

	// Feed-forward sub-block: residual base saved before normalization
	residual := out
	out = l.finalNorm.Forward(out)

	batch, seq := out.Shape()[0], out.Shape()[1]
	flat := out.Reshape(batch*seq, l.fc1.InFeatures())
	flat = l.activation(l.fc1.Forward(flat))
	flat = Dropout(flat, l.activationDropout, train, rng)
	flat = l.fc2.Forward(flat)
	out = flat.Reshape(batch, seq, l.fc2.OutFeatures())
	out = Dropout(out, l.dropout, train, rng).Add(residual)

	return out, attnWeights
}

// Parameters returns all learned parameters of the layer.
func (l *EncoderLayer[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 16)
	params = append(params, l.selfAttn.Parameters()...)
	params = append(params, l.selfAttnNorm.Parameters()...)
	params = append(params, l.fc1.Parameters()...)
	params = append(params, l.fc2.Parameters()...)
	params = append(params, l.finalNorm.Parameters()...)
	return params
}
