package nn

import (
	"errors"
	"math"
	"testing"

	"github.com/strand-ml/strand/internal/backend/cpu"
	"github.com/strand-ml/strand/internal/tensor"
)

func zeroParams[B tensor.Backend](params []*Parameter[B]) {
	for _, p := range params {
		data := p.Tensor().Data()
		for i := range data {
			data[i] = 0
		}
	}
}

func TestSelfAttention_OutputShape(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("self_attn"), 8, 2, 0, true, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	hidden := tensor.Ones[float32](tensor.Shape{2, 4, 8}, backend)
	out, weights, _ := attn.Forward(hidden, nil, nil, nil, false, nil)

	if !out.Shape().Equal(tensor.Shape{2, 4, 8}) {
		t.Errorf("Output shape: got %v, expected [2, 4, 8]", out.Shape())
	}
	if !weights.Shape().Equal(tensor.Shape{2, 2, 4, 4}) {
		t.Errorf("Weights shape: got %v, expected [2, 2, 4, 4]", weights.Shape())
	}
}

func TestSelfAttention_WeightsSumToOne(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("self_attn"), 4, 2, 0, true, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	hidden := fromSlice(t, []float32{
		1, 2, 3, 4,
		-1, 0, 1, 2,
		0.5, 0.5, 0.5, 0.5,
	}, tensor.Shape{1, 3, 4}, backend)
	_, weights, _ := attn.Forward(hidden, nil, nil, nil, false, nil)

	data := weights.Data()
	seq := 3
	for row := 0; row < len(data)/seq; row++ {
		var sum float32
		for col := 0; col < seq; col++ {
			sum += data[row*seq+col]
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("Weight row %d sums to %v, expected 1", row, sum)
		}
	}
}

func TestSelfAttention_UniformWhenQueriesZero(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("self_attn"), 4, 1, 0, true, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	// With zero queries all scores are equal, so softmax is uniform
	zeroParams(attn.QProj.Parameters())

	hidden := fromSlice(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, tensor.Shape{1, 2, 4}, backend)
	_, weights, _ := attn.Forward(hidden, nil, nil, nil, false, nil)

	for i, v := range weights.Data() {
		if math.Abs(float64(v-0.5)) > 1e-6 {
			t.Errorf("Weight %d: got %v, expected 0.5", i, v)
		}
	}
}

func TestSelfAttention_MaskedPositionGetsNoWeight(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("self_attn"), 4, 2, 0, true, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	hidden := tensor.Ones[float32](tensor.Shape{1, 3, 4}, backend)

	// Mask out the last position
	mask := fromSlice(t, []float32{1, 1, 0}, tensor.Shape{1, 3}, backend)
	bias := ExpandMask(mask)

	_, weights, _ := attn.Forward(hidden, nil, bias, nil, false, nil)

	// Every query row's weight on the masked column must be ~0
	data := weights.Data()
	seq := 3
	for row := 0; row < len(data)/seq; row++ {
		if w := data[row*seq+seq-1]; w > 1e-6 {
			t.Errorf("Row %d: masked position carries weight %v", row, w)
		}
	}
}

func TestSelfAttention_NoWeightsWhenDisabled(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("self_attn"), 4, 2, 0, false, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	hidden := tensor.Ones[float32](tensor.Shape{1, 2, 4}, backend)
	_, weights, _ := attn.Forward(hidden, nil, nil, nil, false, nil)

	if weights != nil {
		t.Error("Expected nil weights when output is disabled")
	}
}

func TestSelfAttention_CrossAttentionKeyLength(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("attn"), 4, 2, 0, true, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	queries := tensor.Ones[float32](tensor.Shape{1, 2, 4}, backend)
	keyValues := tensor.Ones[float32](tensor.Shape{1, 5, 4}, backend)

	out, weights, _ := attn.Forward(queries, keyValues, nil, nil, false, nil)

	if !out.Shape().Equal(tensor.Shape{1, 2, 4}) {
		t.Errorf("Output shape: got %v, expected [1, 2, 4]", out.Shape())
	}
	if !weights.Shape().Equal(tensor.Shape{1, 2, 2, 5}) {
		t.Errorf("Weights shape: got %v, expected [1, 2, 2, 5]", weights.Shape())
	}
}

func TestSelfAttention_WithCache(t *testing.T) {
	backend := cpu.New()
	attn, err := NewSelfAttention(RootScope().Sub("attn"), 4, 2, 0, true, backend)
	if err != nil {
		t.Fatalf("Failed to create attention: %v", err)
	}

	cache := NewKVCache[*cpu.CPUBackend]()

	// First step: one token
	step1 := tensor.Ones[float32](tensor.Shape{1, 1, 4}, backend)
	_, weights, cache := attn.Forward(step1, nil, nil, cache, false, nil)
	if cache.Len() != 1 {
		t.Fatalf("Cache length after step 1: got %d, expected 1", cache.Len())
	}
	if !weights.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
		t.Errorf("Step 1 weights shape: got %v", weights.Shape())
	}

	// Second step: the new token attends over both positions
	step2 := tensor.Ones[float32](tensor.Shape{1, 1, 4}, backend)
	_, weights, cache = attn.Forward(step2, nil, nil, cache, false, nil)
	if cache.Len() != 2 {
		t.Fatalf("Cache length after step 2: got %d, expected 2", cache.Len())
	}
	if !weights.Shape().Equal(tensor.Shape{1, 2, 1, 2}) {
		t.Errorf("Step 2 weights shape: got %v", weights.Shape())
	}
}

func TestSelfAttention_InvalidHeadCount(t *testing.T) {
	backend := cpu.New()

	var cfgErr *ConfigError
	if _, err := NewSelfAttention(RootScope(), 8, 3, 0, false, backend); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for 8 dims / 3 heads, got %v", err)
	}
	if _, err := NewSelfAttention(RootScope(), 8, 0, 0, false, backend); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for 0 heads, got %v", err)
	}
}

func TestExpandMask(t *testing.T) {
	backend := cpu.New()
	mask := fromSlice(t, []float32{1, 0, 1, 1}, tensor.Shape{2, 2}, backend)

	bias := ExpandMask(mask)

	if !bias.Shape().Equal(tensor.Shape{2, 1, 1, 2}) {
		t.Fatalf("Expected shape [2, 1, 1, 2], got %v", bias.Shape())
	}
	assertClose(t, bias.Data(), []float32{0, -1e9, 0, 0}, 0)
}
