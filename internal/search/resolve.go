// Package search ranks the embedding index against a free-text query.
package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/index"
	"github.com/docseek/docseek/internal/logger"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Resolver answers similarity queries against one loaded index.
type Resolver struct {
	emb    Embedder
	idx    *index.Index
	opts   Options
	logger *zap.Logger
}

// NewResolver creates a Resolver. The index is shared read-only.
func NewResolver(emb Embedder, idx *index.Index, opts Options, log *zap.Logger) *Resolver {
	return &Resolver{emb: emb, idx: idx, opts: opts, logger: logger.OrNop(log)}
}

// Index returns the index the resolver ranks.
func (r *Resolver) Index() *index.Index { return r.idx }

// Options returns the default ranking options.
func (r *Resolver) Options() Options { return r.opts }

// Resolve ranks query with the resolver's default options.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]Match, error) {
	return r.ResolveWith(ctx, query, r.opts)
}

// ResolveWith ranks query with explicit options.
func (r *Resolver) ResolveWith(ctx context.Context, query string, opts Options) ([]Match, error) {
	matches, err := Resolve(ctx, r.emb, r.idx, query, opts)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolved query",
		zap.String("query", query),
		zap.Float64("threshold", opts.Threshold),
		zap.Int("top_k", opts.TopK),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// Resolve embeds query and ranks idx against it. An empty result is not an error.
func Resolve(ctx context.Context, emb Embedder, idx *index.Index, query string, opts Options) ([]Match, error) {
	qv, err := emb.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, apperr.ErrEmbeddingService) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrEmbeddingService, err)
	}
	if len(qv) != idx.Dim() {
		return nil, fmt.Errorf("%w: query embedding dim %d does not match index dim %d", apperr.ErrEmbeddingService, len(qv), idx.Dim())
	}
	if m, ok := idx.Manifest(); ok && m.Normalize {
		qv = index.NormalizeL2(qv)
	}
	return Rank(ctx, idx, qv, opts)
}
