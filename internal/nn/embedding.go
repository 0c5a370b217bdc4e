package nn

import (
	"fmt"
	"math/rand"

	"github.com/strand-ml/strand/internal/tensor"
)

// Embedding is a lookup table mapping token ids to dense vectors.
//
// The table is owned externally to the encoder stack (it is typically shared
// with a decoder) and passed into Forward, matching the pretrained parameter
// layout where token embeddings live outside the encoder scope.
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // [NumEmbed, EmbedDim]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an Embedding layer with weights drawn from N(0, 1).
func NewEmbedding[B tensor.Backend](scope Scope, numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	weight := tensor.Zeros[float32](tensor.Shape{numEmbeddings, embeddingDim}, backend)
	data := weight.Data()
	//nolint:gosec // math/rand is appropriate for weight initialization
	for i := range data {
		data[i] = float32(rand.NormFloat64())
	}

	return &Embedding[B]{
		Weight:   NewParameter(scope.Name("weight"), weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// NewEmbeddingWithWeight creates an Embedding layer from pre-initialized
// weights (pretrained or custom-initialized).
func NewEmbeddingWithWeight[B tensor.Backend](scope Scope, weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter(scope.Name("weight"), weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward performs embedding lookup.
//
// indices: [batch, seq] int32 token ids
// result: [batch, seq, EmbedDim]
//
// Panics if any index is out of bounds [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// Parameters returns the embedding weight.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
