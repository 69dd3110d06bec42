package fuzzy

import (
	"context"
	"fmt"
	"sync"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/index"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Semantic ranks candidates by cosine similarity of name embeddings.
// Candidate embeddings are cached per name.
type Semantic struct {
	Embedder      Embedder
	MinConfidence float64
	Margin        float64

	cache sync.Map // name → []float32
}

// NewSemantic creates a Semantic resolver. Zero thresholds take the defaults.
func NewSemantic(emb Embedder, minConfidence, margin float64) *Semantic {
	return &Semantic{Embedder: emb, MinConfidence: minConfidence, Margin: margin}
}

// Resolve implements Resolver.
func (s *Semantic) Resolve(ctx context.Context, candidates []Candidate, approxName string) (string, error) {
	minConf, margin := thresholds(s.MinConfidence, s.Margin)
	ranked, err := s.Rank(ctx, candidates, approxName)
	if err != nil {
		return "", err
	}
	return choose(ranked, approxName, minConf, margin)
}

// Rank scores every candidate, best first.
func (s *Semantic) Rank(ctx context.Context, candidates []Candidate, approxName string) ([]Scored, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	qv, err := s.Embedder.Embed(ctx, approxName)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %q: %v", apperr.ErrEmbeddingService, approxName, err)
	}
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		cv, err := s.vector(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		score, err := index.Cosine(qv, cv)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrEmbeddingService, err)
		}
		out = append(out, Scored{Candidate: c, Score: score})
	}
	sortScored(out)
	return out, nil
}

func (s *Semantic) vector(ctx context.Context, name string) ([]float32, error) {
	if v, ok := s.cache.Load(name); ok {
		return v.([]float32), nil
	}
	v, err := s.Embedder.Embed(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding %q: %v", apperr.ErrEmbeddingService, name, err)
	}
	s.cache.Store(name, v)
	return v, nil
}
