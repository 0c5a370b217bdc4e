package nn

import (
	"fmt"
	"math/rand"

	"github.com/strand-ml/strand/internal/tensor"
)

// EncoderOutput is the result of one forward pass through the stack.
// It is created once per call and owned by the caller after return.
type EncoderOutput[B tensor.Backend] struct {
	// LastHiddenState is the final-norm output [batch, seq, d_model].
	LastHiddenState *tensor.Tensor[float32, B]

	// HiddenStates holds the per-layer hidden states when collection is
	// enabled: layer-count + 1 entries, the first being the post-embedding
	// pre-stack tensor and the last the pre-final-norm output. Nil when
	// collection is disabled.
	HiddenStates []*tensor.Tensor[float32, B]

	// Attentions holds the per-layer attention weights
	// [batch, heads, seq, seq] when collection is enabled: exactly
	// layer-count entries. Nil when collection is disabled.
	Attentions []*tensor.Tensor[float32, B]
}

// collector accumulates per-layer tensors. The enabled/disabled distinction
// is carried explicitly rather than through a nil slice so the collection
// branches in Forward stay exhaustive.
type collector[B tensor.Backend] struct {
	enabled bool
	items   []*tensor.Tensor[float32, B]
}

func newCollector[B tensor.Backend](enabled bool, capacity int) collector[B] {
	if !enabled {
		return collector[B]{}
	}
	return collector[B]{enabled: true, items: make([]*tensor.Tensor[float32, B], 0, capacity)}
}

func (c *collector[B]) append(t *tensor.Tensor[float32, B]) {
	if c.enabled {
		c.items = append(c.items, t.Clone())
	}
}

// Encoder is the transformer encoder stack: embedding scaling, positional
// encoding, dropout, N sequential pre-norm layers and a final normalization.
//
// All learned parameters are read-only during forward computation, so a
// single Encoder may serve arbitrarily many concurrent forward calls without
// locking. Layers are always applied strictly in order.
type Encoder[B tensor.Backend] struct {
	config    *EncoderConfig
	layers    []*EncoderLayer[B]
	layerNorm *LayerNorm[B]
	embedPos  *SinusoidalPositionalEncoding[B]

	embedScale float32
	backend    B
}

// NewEncoder builds the encoder stack from a validated configuration under
// the given parameter-naming scope.
//
// Construction fails with a ConfigError for invalid structural parameters;
// no partial stack is ever returned.
func NewEncoder[B tensor.Backend](scope Scope, config *EncoderConfig, backend B) (*Encoder[B], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedPos, err := NewSinusoidalPositionalEncoding(config.MaxPositionEmbeddings, config.DModel, backend)
	if err != nil {
		return nil, err
	}

	layers := make([]*EncoderLayer[B], config.EncoderLayers)
	layerScope := scope.Sub("layers")
	for i := range layers {
		layer, err := NewEncoderLayer(layerScope.Index(i), config, backend)
		if err != nil {
			return nil, err
		}
		layers[i] = layer
	}

	return &Encoder[B]{
		config:     config,
		layers:     layers,
		layerNorm:  NewLayerNorm(scope.Sub("layer_norm"), config.DModel, config.normEps(), backend),
		embedPos:   embedPos,
		embedScale: config.embeddingScale(),
		backend:    backend,
	}, nil
}

// Config returns the encoder's configuration.
func (e *Encoder[B]) Config() *EncoderConfig {
	return e.config
}

// Forward turns token ids into contextualized representations.
//
// Args:
//   - inputIDs: token ids [batch, seq_len]
//   - attentionMask: optional 0/1 mask [batch, seq_len] where 1 marks
//     attendable positions; nil means full attention
//   - embeddings: externally owned token embedding table
//   - train: training-mode flag (enables dropout)
//   - rng: random source for dropout; may be nil when train is false
//
// With train disabled the output is deterministic: identical inputs and
// parameters produce bit-identical results.
func (e *Encoder[B]) Forward(
	inputIDs *tensor.Tensor[int32, B],
	attentionMask *tensor.Tensor[float32, B],
	embeddings *Embedding[B],
	train bool,
	rng *rand.Rand,
) (*EncoderOutput[B], error) {
	idShape := inputIDs.Shape()
	if len(idShape) != 2 {
		return nil, &ShapeError{Op: "encoder", Want: "[batch, seq_len] token ids", Got: fmt.Sprint(idShape)}
	}
	batch, seqLen := idShape[0], idShape[1]

	if embeddings.EmbedDim != e.config.DModel {
		return nil, &ShapeError{
			Op:   "encoder",
			Want: fmt.Sprintf("embedding dim %d", e.config.DModel),
			Got:  fmt.Sprint(embeddings.EmbedDim),
		}
	}

	// Expand the 0/1 mask into an additive attention bias
	var attnBias *tensor.Tensor[float32, B]
	if attentionMask != nil {
		maskShape := attentionMask.Shape()
		if !maskShape.Equal(tensor.Shape{batch, seqLen}) {
			return nil, &ShapeError{
				Op:   "encoder",
				Want: fmt.Sprint(tensor.Shape{batch, seqLen}),
				Got:  fmt.Sprint(maskShape),
			}
		}
		attnBias = ExpandMask(attentionMask)
	}

	// Embed, scale, add positions, dropout
	posEnc, err := e.embedPos.Forward(seqLen, 0)
	if err != nil {
		return nil, err
	}

	hidden := embeddings.Forward(inputIDs)
	if e.embedScale != 1.0 {
		hidden = hidden.MulScalar(e.embedScale)
	}
	hidden = hidden.Add(posEnc.Reshape(1, seqLen, e.config.DModel))
	hidden = Dropout(hidden, e.config.Dropout, train, rng)

	hiddenStates := newCollector[B](e.config.OutputHiddenStates, len(e.layers)+1)
	attentions := newCollector[B](e.config.OutputAttentions, len(e.layers))

	for i, layer := range e.layers {
		// Capture the state each layer sees, before it transforms it
		hiddenStates.append(hidden)

		var weights *tensor.Tensor[float32, B]
		hidden, weights = layer.Forward(hidden, attnBias, train, rng)

		if attentions.enabled {
			if weights == nil {
				return nil, &InvariantError{
					Op:     "encoder",
					Detail: fmt.Sprintf("attention output enabled but layer %d returned no weights", i),
				}
			}
			attentions.append(weights)
		}
	}

	// One final capture so the collector holds layer-count + 1 entries
	hiddenStates.append(hidden)

	return &EncoderOutput[B]{
		LastHiddenState: e.layerNorm.Forward(hidden),
		HiddenStates:    hiddenStates.items,
		Attentions:      attentions.items,
	}, nil
}

// Parameters returns all learned parameters of the stack.
func (e *Encoder[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, len(e.layers)*16+2)
	for _, layer := range e.layers {
		params = append(params, layer.Parameters()...)
	}
	params = append(params, e.layerNorm.Parameters()...)
	return params
}
