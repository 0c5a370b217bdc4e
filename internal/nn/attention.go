// Package nn implements the transformer encoder stack and its building
// blocks: linear and normalization layers, sinusoidal positional encodings,
// multi-head self-attention, and the stack orchestration.
package nn

import (
	"math"
	"math/rand"

	"github.com/strand-ml/strand/internal/tensor"
)

// SelfAttention implements multi-head scaled dot-product attention over a
// single sequence:
//
//	Attention(Q, K, V) = softmax(QK^T / sqrt(head_dim) + bias) * V
//
// Projection layers are named q_proj, k_proj, v_proj and out_proj to match
// the pretrained parameter layout. The module also accepts an optional
// cross-attention source and a KV cache; the encoder passes nil for both,
// but the contract keeps the module reusable by a decoder.
type SelfAttention[B tensor.Backend] struct {
	QProj *Linear[B]
	KProj *Linear[B]
	VProj *Linear[B]
	OProj *Linear[B]

	NumHeads int
	HeadDim  int
	EmbedDim int

	dropout       float32 // attention-probability dropout
	outputWeights bool
	backend       B
}

// NewSelfAttention creates a multi-head self-attention module under the
// given naming scope.
//
// Returns a ConfigError when embedDim is not divisible by numHeads.
func NewSelfAttention[B tensor.Backend](
	scope Scope,
	embedDim, numHeads int,
	dropout float32,
	outputWeights bool,
	backend B,
) (*SelfAttention[B], error) {
	if numHeads <= 0 {
		return nil, &ConfigError{Field: "attention heads", Reason: "must be positive"}
	}
	if embedDim%numHeads != 0 {
		return nil, &ConfigError{
			Field:  "d_model",
			Reason: "must be divisible by the number of attention heads",
		}
	}

	return &SelfAttention[B]{
		QProj:         NewLinear(scope.Sub("q_proj"), embedDim, embedDim, backend),
		KProj:         NewLinear(scope.Sub("k_proj"), embedDim, embedDim, backend),
		VProj:         NewLinear(scope.Sub("v_proj"), embedDim, embedDim, backend),
		OProj:         NewLinear(scope.Sub("out_proj"), embedDim, embedDim, backend),
		NumHeads:      numHeads,
		HeadDim:       embedDim / numHeads,
		EmbedDim:      embedDim,
		dropout:       dropout,
		outputWeights: outputWeights,
		backend:       backend,
	}, nil
}

// Forward computes attention.
//
// Args:
//   - hidden: query source [batch, seq_q, embed_dim]
//   - keyValueStates: optional cross-attention source [batch, seq_k, embed_dim];
//     nil means self-attention over hidden
//   - attnBias: optional additive bias broadcastable to [batch, heads, seq_q, seq_k]
//   - cache: optional KV cache, updated in place with the new keys/values
//   - train: training-mode flag controlling attention-probability dropout
//   - rng: random source for dropout; may be nil when train is false
//
// Returns the context tensor [batch, seq_q, embed_dim], the attention
// weights [batch, heads, seq_q, seq_k] when weight output is enabled (nil
// otherwise), and the cache that was passed in (nil when absent).
func (m *SelfAttention[B]) Forward(
	hidden, keyValueStates, attnBias *tensor.Tensor[float32, B],
	cache *KVCache[B],
	train bool,
	rng *rand.Rand,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B], *KVCache[B]) {
	batch := hidden.Shape()[0]
	seqQ := hidden.Shape()[1]

	kvSource := hidden
	if keyValueStates != nil {
		kvSource = keyValueStates
	}
	seqK := kvSource.Shape()[1]

	// Project and split into heads: [batch, heads, seq, head_dim]
	q := m.projectHeads(m.QProj, hidden, batch, seqQ)
	k := m.projectHeads(m.KProj, kvSource, batch, seqK)
	v := m.projectHeads(m.VProj, kvSource, batch, seqK)

	if cache != nil {
		cache.Update(k, v)
		k, v = cache.Get()
		seqK = k.Shape()[2]
	}

	// scores = Q @ K^T / sqrt(head_dim)
	scale := float32(1.0 / math.Sqrt(float64(m.HeadDim)))
	scores := q.BatchMatMul(k.Transpose(0, 1, 3, 2)).MulScalar(scale)

	if attnBias != nil {
		scores = scores.Add(attnBias)
	}

	weights := scores.Softmax(-1)
	probs := Dropout(weights, m.dropout, train, rng)

	// Merge heads back: [batch, seq_q, embed_dim]
	ctx := probs.BatchMatMul(v).Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.EmbedDim)

	out := m.OProj.Forward(ctx.Reshape(batch*seqQ, m.EmbedDim)).Reshape(batch, seqQ, m.EmbedDim)

	var savedWeights *tensor.Tensor[float32, B]
	if m.outputWeights {
		savedWeights = weights
	}

	return out, savedWeights, cache
}

// projectHeads applies a projection and reshapes the result to
// [batch, heads, seq, head_dim].
func (m *SelfAttention[B]) projectHeads(
	proj *Linear[B],
	input *tensor.Tensor[float32, B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	out := proj.Forward(input.Reshape(batch*seq, m.EmbedDim))
	return out.Reshape(batch, seq, m.NumHeads, m.HeadDim).Transpose(0, 2, 1, 3)
}

// Parameters returns all projection parameters.
func (m *SelfAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	params = append(params, m.QProj.Parameters()...)
	params = append(params, m.KProj.Parameters()...)
	params = append(params, m.VProj.Parameters()...)
	params = append(params, m.OProj.Parameters()...)
	return params
}
