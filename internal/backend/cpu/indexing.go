package cpu

import (
	"fmt"

	"github.com/strand-ml/strand/internal/tensor"
)

// Embedding looks up rows of weight by int32 indices.
//
// weight: [num_embeddings, embed_dim] float32
// indices: any shape, int32
// result: indices.Shape() + [embed_dim]
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D, got %v", wShape))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	numEmbed, embedDim := wShape[0], wShape[1]

	outShape := make(tensor.Shape, 0, len(indices.Shape())+1)
	outShape = append(outShape, indices.Shape()...)
	outShape = append(outShape, embedDim)

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("embedding: %v", err))
	}

	wData := weight.AsFloat32()
	idxData := indices.AsInt32()
	out := result.AsFloat32()

	for i, idx := range idxData {
		if idx < 0 || int(idx) >= numEmbed {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, numEmbed))
		}
		copy(out[i*embedDim:(i+1)*embedDim], wData[int(idx)*embedDim:(int(idx)+1)*embedDim])
	}

	return result
}
