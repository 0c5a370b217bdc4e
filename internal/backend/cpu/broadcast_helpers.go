package cpu

import "github.com/strand-ml/strand/internal/tensor"

// broadcastIndexer maps an output index back to a flat offset in a source
// tensor, treating broadcasted (size-1 or missing) dimensions as stride 0.
type broadcastIndexer struct {
	strides []int // aligned to the output rank
}

func newBroadcastIndexer(src, out tensor.Shape) broadcastIndexer {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(out))

	for i := range out {
		srcIdx := len(src) - len(out) + i
		if srcIdx < 0 || src[srcIdx] == 1 {
			strides[i] = 0
		} else {
			strides[i] = srcStrides[srcIdx]
		}
	}

	return broadcastIndexer{strides: strides}
}

func (bi broadcastIndexer) offset(idx []int) int {
	offset := 0
	for i, ix := range idx {
		offset += ix * bi.strides[i]
	}
	return offset
}

// flatToIndices decomposes a flat row-major offset into per-dimension indices.
func flatToIndices(flat int, strides []int, idx []int) {
	for i, s := range strides {
		idx[i] = flat / s
		flat %= s
	}
}
