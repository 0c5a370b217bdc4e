package nn

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// layerNormEps is the normalization epsilon used throughout the stack when
// the configuration leaves NormEps unset. Matches the pretrained checkpoints.
const layerNormEps = 1e-5

// EncoderConfig holds the immutable structural parameters of the encoder
// stack. A config is validated once at construction time and never mutated
// afterwards.
type EncoderConfig struct {
	DModel                int `yaml:"d_model"`
	EncoderLayers         int `yaml:"encoder_layers"`
	EncoderAttentionHeads int `yaml:"encoder_attention_heads"`
	EncoderFFNDim         int `yaml:"encoder_ffn_dim"`
	VocabSize             int `yaml:"vocab_size"`
	MaxPositionEmbeddings int `yaml:"max_position_embeddings"`

	Dropout           float32 `yaml:"dropout"`
	AttentionDropout  float32 `yaml:"attention_dropout"`
	ActivationDropout float32 `yaml:"activation_dropout"`

	ActivationFunction Activation `yaml:"activation_function"`

	ScaleEmbedding     bool `yaml:"scale_embedding"`
	OutputHiddenStates bool `yaml:"output_hidden_states"`
	OutputAttentions   bool `yaml:"output_attentions"`

	// NormEps defaults to 1e-5 when zero.
	NormEps float32 `yaml:"norm_eps"`
}

// Validate checks the structural invariants of the configuration.
// All violations are ConfigErrors; the first one found is returned.
func (c *EncoderConfig) Validate() error {
	if c.DModel <= 0 {
		return &ConfigError{Field: "d_model", Reason: "must be positive"}
	}
	if c.EncoderLayers <= 0 {
		return &ConfigError{Field: "encoder_layers", Reason: "must be positive"}
	}
	if c.EncoderAttentionHeads <= 0 {
		return &ConfigError{Field: "encoder_attention_heads", Reason: "must be positive"}
	}
	if c.DModel%c.EncoderAttentionHeads != 0 {
		return &ConfigError{
			Field:  "d_model",
			Reason: fmt.Sprintf("%d is not divisible by %d attention heads", c.DModel, c.EncoderAttentionHeads),
		}
	}
	if c.EncoderFFNDim <= 0 {
		return &ConfigError{Field: "encoder_ffn_dim", Reason: "must be positive"}
	}
	if c.VocabSize <= 0 {
		return &ConfigError{Field: "vocab_size", Reason: "must be positive"}
	}
	if c.MaxPositionEmbeddings <= 0 {
		return &ConfigError{Field: "max_position_embeddings", Reason: "must be positive"}
	}
	for _, p := range []struct {
		name  string
		value float32
	}{
		{"dropout", c.Dropout},
		{"attention_dropout", c.AttentionDropout},
		{"activation_dropout", c.ActivationDropout},
	} {
		if p.value < 0 || p.value >= 1 {
			return &ConfigError{Field: p.name, Reason: "must be in [0, 1)"}
		}
	}
	if !c.ActivationFunction.Valid() {
		return &ConfigError{
			Field:  "activation_function",
			Reason: fmt.Sprintf("unsupported activation %q", c.ActivationFunction),
		}
	}
	if c.NormEps < 0 {
		return &ConfigError{Field: "norm_eps", Reason: "must be non-negative"}
	}
	return nil
}

// normEps returns the configured epsilon, defaulting to 1e-5.
func (c *EncoderConfig) normEps() float32 {
	if c.NormEps == 0 {
		return layerNormEps
	}
	return c.NormEps
}

// embeddingScale returns the factor applied to token embeddings:
// sqrt(d_model) when embedding scaling is configured, 1.0 otherwise.
func (c *EncoderConfig) embeddingScale() float32 {
	if c.ScaleEmbedding {
		return float32(math.Sqrt(float64(c.DModel)))
	}
	return 1.0
}

// LoadConfig reads and validates an EncoderConfig from a YAML file.
func LoadConfig(path string) (*EncoderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg EncoderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
