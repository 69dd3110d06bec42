package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/docseek/docseek/internal/apperr"
)

const (
	DefaultOllamaModel   = "nomic-embed-text"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

type ollamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	dim     atomic.Int64
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllama constructs a provider backed by Ollama's /api/embed endpoint.
func NewOllama(cfg *Config) Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	return &ollamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *ollamaProvider) ModelID() string {
	return ProviderOllama + ":" + p.model
}

func (p *ollamaProvider) Dim() int {
	return int(p.dim.Load())
}

func (p *ollamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", apperr.ErrEmbeddingService)
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", apperr.ErrEmbeddingService, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", apperr.ErrEmbeddingService, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", apperr.ErrEmbeddingService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", apperr.ErrEmbeddingService, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", apperr.ErrEmbeddingService, err)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", apperr.ErrEmbeddingService)
	}

	p.dim.Store(int64(len(parsed.Embeddings[0])))
	return parsed.Embeddings[0], nil
}
