package embeddings

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/docseek/docseek/internal/apperr"
)

type openAIProvider struct {
	client openai.Client
	model  string
	dim    atomic.Int64
}

// NewOpenAI constructs an OpenAI-compatible embeddings provider.
//
// BaseURL may point at any server implementing POST {baseURL}/embeddings.
// The SDK's automatic retries are disabled; failures surface to the caller.
func NewOpenAI(cfg *Config) Provider {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &openAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (p *openAIProvider) ModelID() string {
	return ProviderOpenAI + ":" + p.model
}

func (p *openAIProvider) Dim() int {
	return int(p.dim.Load())
}

func (p *openAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", apperr.ErrEmbeddingService)
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          openai.EmbeddingModel(p.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEmbeddingService, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: response missing embedding", apperr.ErrEmbeddingService)
	}

	emb64 := resp.Data[0].Embedding
	out := make([]float32, len(emb64))
	for i, v := range emb64 {
		out[i] = float32(v)
	}
	p.dim.Store(int64(len(out)))
	return out, nil
}
