package nn

import (
	"fmt"

	"github.com/strand-ml/strand/internal/tensor"
)

// KVCache stores projected key/value tensors across forward calls.
//
// The encoder itself never populates a cache (every call sees the full
// sequence), but the attention contract carries one so the same module
// serves an incremental decoder. Keys and values are stored with shape
// [batch, heads, cached_len, head_dim].
type KVCache[B tensor.Backend] struct {
	keys   *tensor.Tensor[float32, B]
	values *tensor.Tensor[float32, B]
}

// NewKVCache creates an empty cache.
func NewKVCache[B tensor.Backend]() *KVCache[B] {
	return &KVCache[B]{}
}

// Len returns the number of cached positions.
func (c *KVCache[B]) Len() int {
	if c.keys == nil {
		return 0
	}
	return c.keys.Shape()[2]
}

// Update appends new key/value tensors [batch, heads, new_len, head_dim]
// along the sequence dimension.
func (c *KVCache[B]) Update(k, v *tensor.Tensor[float32, B]) {
	if c.keys == nil {
		c.keys = k
		c.values = v
		return
	}
	c.keys = concatSeq(c.keys, k)
	c.values = concatSeq(c.values, v)
}

// Get returns the cached keys and values.
func (c *KVCache[B]) Get() (k, v *tensor.Tensor[float32, B]) {
	return c.keys, c.values
}

// concatSeq concatenates two [batch, heads, len, head_dim] tensors along
// the sequence dimension.
func concatSeq[B tensor.Backend](a, b *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	aShape := a.Shape()
	bShape := b.Shape()
	if aShape[0] != bShape[0] || aShape[1] != bShape[1] || aShape[3] != bShape[3] {
		panic(fmt.Sprintf("KVCache: incompatible shapes %v and %v", aShape, bShape))
	}

	batch, heads := aShape[0], aShape[1]
	aLen, bLen, headDim := aShape[2], bShape[2], aShape[3]

	out := tensor.Zeros[float32](tensor.Shape{batch, heads, aLen + bLen, headDim}, a.Backend())
	aData := a.Data()
	bData := b.Data()
	dst := out.Data()

	for bh := 0; bh < batch*heads; bh++ {
		dstBase := bh * (aLen + bLen) * headDim
		copy(dst[dstBase:], aData[bh*aLen*headDim:(bh+1)*aLen*headDim])
		copy(dst[dstBase+aLen*headDim:], bData[bh*bLen*headDim:(bh+1)*bLen*headDim])
	}

	return out
}
