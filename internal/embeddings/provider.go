package embeddings

import (
	"context"
	"fmt"

	"github.com/docseek/docseek/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// DefaultOpenAIModel is the model the original file-name index was built with.
const DefaultOpenAIModel = "text-embedding-3-large"

// LoadConfig resolves embeddings config from environment variables first, then ~/.docseek/.env.
func LoadConfig() (*Config, error) {
	var cfg Config
	for key, dst := range map[string]*string{
		config.KeyEmbeddingsProvider: &cfg.Provider,
		config.KeyEmbeddingsModel:    &cfg.Model,
		config.KeyEmbeddingsAPIKey:   &cfg.APIKey,
		config.KeyEmbeddingsBaseURL:  &cfg.BaseURL,
	} {
		v, err := config.GetConfigValue(key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	return &cfg, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embeddings API key is not configured (set %s)", config.KeyEmbeddingsAPIKey)
		}
		return NewOpenAI(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg), nil
	case "":
		return nil, fmt.Errorf("embeddings provider is not configured (set %s)", config.KeyEmbeddingsProvider)
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}
