// Copyright 2025 Strand ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for the neural network layers in
// Strand: the transformer encoder stack and the modules it is built from.
//
// Example:
//
//	backend := cpu.New()
//	config, err := nn.LoadConfig("config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	encoder, err := nn.NewEncoder(nn.RootScope(), config, backend)
//	if err != nil {
//		log.Fatal(err)
//	}
//	embed := nn.NewEmbedding(nn.RootScope().Sub("embed_tokens"), config.VocabSize, config.DModel, backend)
//	out, err := encoder.Forward(ids, nil, embed, false, nil)
package nn

import (
	"math/rand"

	"github.com/strand-ml/strand/internal/nn"
	"github.com/strand-ml/strand/internal/tensor"
)

// Scope names parameters hierarchically, e.g. "layers.0.self_attn.q_proj".
type Scope = nn.Scope

// RootScope returns the empty top-level scope.
func RootScope() Scope {
	return nn.RootScope()
}

// Activation names one of the supported activation functions.
type Activation = nn.Activation

// Supported activation functions.
const (
	GELU Activation = nn.GELU
	ReLU Activation = nn.ReLU
	SiLU Activation = nn.SiLU
	Tanh Activation = nn.Tanh
)

// Error types reported by configuration validation and forward computation.
type (
	ConfigError    = nn.ConfigError
	ShapeError     = nn.ShapeError
	InvariantError = nn.InvariantError
	RangeError     = nn.RangeError
)

// EncoderConfig holds the structural and behavioral parameters of the
// encoder stack.
type EncoderConfig = nn.EncoderConfig

// LoadConfig reads an EncoderConfig from a YAML file.
func LoadConfig(path string) (*EncoderConfig, error) {
	return nn.LoadConfig(path)
}

// Encoder is the transformer encoder stack.
type Encoder[B tensor.Backend] = nn.Encoder[B]

// EncoderOutput is the result of one encoder forward pass.
type EncoderOutput[B tensor.Backend] = nn.EncoderOutput[B]

// NewEncoder builds an encoder stack from a validated configuration.
func NewEncoder[B tensor.Backend](scope Scope, config *EncoderConfig, backend B) (*Encoder[B], error) {
	return nn.NewEncoder(scope, config, backend)
}

// EncoderLayer is one pre-norm transformer block.
type EncoderLayer[B tensor.Backend] = nn.EncoderLayer[B]

// NewEncoderLayer creates one encoder layer under the given naming scope.
func NewEncoderLayer[B tensor.Backend](scope Scope, config *EncoderConfig, backend B) (*EncoderLayer[B], error) {
	return nn.NewEncoderLayer(scope, config, backend)
}

// SelfAttention is multi-head scaled dot-product attention.
type SelfAttention[B tensor.Backend] = nn.SelfAttention[B]

// NewSelfAttention creates a multi-head attention module.
func NewSelfAttention[B tensor.Backend](
	scope Scope,
	embedDim, numHeads int,
	dropout float32,
	outputWeights bool,
	backend B,
) (*SelfAttention[B], error) {
	return nn.NewSelfAttention(scope, embedDim, numHeads, dropout, outputWeights, backend)
}

// SinusoidalPositionalEncoding precomputes fixed sin/cos position vectors.
type SinusoidalPositionalEncoding[B tensor.Backend] = nn.SinusoidalPositionalEncoding[B]

// NewSinusoidalPositionalEncoding precomputes the encoding table up to maxLen.
func NewSinusoidalPositionalEncoding[B tensor.Backend](maxLen, dim int, backend B) (*SinusoidalPositionalEncoding[B], error) {
	return nn.NewSinusoidalPositionalEncoding(maxLen, dim, backend)
}

// KVCache accumulates attention keys and values across incremental calls.
type KVCache[B tensor.Backend] = nn.KVCache[B]

// NewKVCache creates an empty key/value cache.
func NewKVCache[B tensor.Backend]() *KVCache[B] {
	return nn.NewKVCache[B]()
}

// LayerNorm applies layer normalization over the last dimension.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer normalization module.
func NewLayerNorm[B tensor.Backend](scope Scope, normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(scope, normalizedShape, epsilon, backend)
}

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](scope Scope, inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(scope, inFeatures, outFeatures, backend)
}

// Embedding is a token embedding lookup table.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table with randomly initialized weights.
func NewEmbedding[B tensor.Backend](scope Scope, numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(scope, numEmbeddings, embeddingDim, backend)
}

// NewEmbeddingWithWeight wraps an existing weight tensor as an embedding
// table without copying.
func NewEmbeddingWithWeight[B tensor.Backend](scope Scope, weight *tensor.Tensor[float32, B]) *Embedding[B] {
	return nn.NewEmbeddingWithWeight(scope, weight)
}

// Parameter is a named learnable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Dropout randomly zeroes elements with probability p when train is true,
// scaling the survivors by 1/(1-p). In evaluation mode it is the identity.
func Dropout[B tensor.Backend](x *tensor.Tensor[float32, B], p float32, train bool, rng *rand.Rand) *tensor.Tensor[float32, B] {
	return nn.Dropout(x, p, train, rng)
}

// ExpandMask turns a 0/1 attention mask [batch, seq] into an additive bias
// [batch, 1, 1, seq] suitable for adding to attention scores.
func ExpandMask[B tensor.Backend](mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return nn.ExpandMask(mask)
}
