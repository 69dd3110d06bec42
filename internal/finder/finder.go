// Package finder turns a file description into a signed download URL, either
// by similarity search over the index or by walking the repository.
package finder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/fuzzy"
	"github.com/docseek/docseek/internal/index"
	"github.com/docseek/docseek/internal/locator"
	"github.com/docseek/docseek/internal/logger"
	"github.com/docseek/docseek/internal/navigator"
	"github.com/docseek/docseek/internal/search"
)

// ErrNoIndex is returned by Find when no index is loaded.
var ErrNoIndex = errors.New("no embedding index loaded")

// Repository is the remote surface used by the finder.
type Repository interface {
	navigator.Repository
	SignedDownloadURL(ctx context.Context, cred string, loc locator.Locator) (string, error)
}

// Query is a free-text lookup.
type Query struct {
	Text string `json:"query"`
	// Threshold and TopK override the resolver defaults when set.
	Threshold *float64 `json:"threshold,omitempty"`
	TopK      *int     `json:"top_k,omitempty"`
	// Keyword selects name matching instead of embeddings.
	Keyword bool `json:"keyword,omitempty"`
}

// Download is a resolved file and its signed URL.
type Download struct {
	Name    string          `json:"name"`
	Locator locator.Locator `json:"locator"`
	URL     string          `json:"url"`
}

// Options configures a Service. Index and Embedder may be nil when only
// navigation is used.
type Options struct {
	Index      *index.Index
	Embedder   search.Embedder
	Ranking    search.Options
	Repository Repository
	Fuzzy      fuzzy.Resolver
	Logger     *zap.Logger
}

// Service is safe for concurrent use; each navigation gets its own session.
type Service struct {
	idx      *index.Index
	resolver *search.Resolver
	repo     Repository
	fuzzy    fuzzy.Resolver
	logger   *zap.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	log := logger.OrNop(opts.Logger)
	s := &Service{
		idx:    opts.Index,
		repo:   opts.Repository,
		fuzzy:  opts.Fuzzy,
		logger: log,
	}
	if s.fuzzy == nil {
		s.fuzzy = fuzzy.Lexical{}
	}
	if opts.Index != nil && opts.Embedder != nil {
		s.resolver = search.NewResolver(opts.Embedder, opts.Index, opts.Ranking, log)
	}
	return s
}

// Find ranks the index against q.
func (s *Service) Find(ctx context.Context, q Query) ([]search.Match, error) {
	if s.idx == nil {
		return nil, ErrNoIndex
	}
	if q.Keyword {
		limit := 0
		if q.TopK != nil {
			limit = *q.TopK
		}
		return search.KeywordSearch(s.idx, q.Text, limit), nil
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("%w: embeddings are not configured", apperr.ErrEmbeddingService)
	}
	opts := s.resolver.Options()
	if q.Threshold != nil {
		opts.Threshold = *q.Threshold
	}
	if q.TopK != nil {
		opts.TopK = *q.TopK
	}
	return s.resolver.ResolveWith(ctx, q.Text, opts)
}

// SignedURL parses a locator link and exchanges it for a download URL.
func (s *Service) SignedURL(ctx context.Context, cred, link string) (Download, error) {
	loc, err := locator.Parse(link)
	if err != nil {
		return Download{}, err
	}
	u, err := s.repo.SignedDownloadURL(ctx, cred, loc)
	if err != nil {
		return Download{}, err
	}
	return Download{Name: loc.ObjectKey, Locator: loc, URL: u}, nil
}

// FindAndSign signs the best match for q. It also returns every match.
func (s *Service) FindAndSign(ctx context.Context, cred string, q Query) (Download, []search.Match, error) {
	matches, err := s.Find(ctx, q)
	if err != nil {
		return Download{}, nil, err
	}
	if len(matches) == 0 {
		return Download{}, matches, fmt.Errorf("%w: no indexed file matches %q", apperr.ErrResolutionNotFound, q.Text)
	}
	d, err := s.SignedURL(ctx, cred, matches[0].Href)
	if err != nil {
		return Download{}, matches, err
	}
	d.Name = matches[0].Name
	s.logger.Debug("signed best match", zap.String("name", d.Name), zap.Float64("score", matches[0].Score))
	return d, matches, nil
}

// ListHubs lists the hubs visible to cred.
func (s *Service) ListHubs(ctx context.Context, cred string) ([]dm.Node, error) {
	return s.repo.ListHubs(ctx, cred)
}

// NewSession starts a navigation session over the service's repository.
func (s *Service) NewSession() *navigator.Session {
	return navigator.NewSession(s.repo, s.fuzzy, s.logger)
}

// Navigate walks p and returns the node reached along with the session trail.
func (s *Service) Navigate(ctx context.Context, cred string, p navigator.Path) (dm.Node, []dm.Node, error) {
	sess := s.NewSession()
	node, err := sess.Navigate(ctx, cred, p)
	if err != nil {
		return dm.Node{}, sess.Trail(), err
	}
	return node, sess.Trail(), nil
}

// NavigateAndSign walks p to a file and signs its storage link.
func (s *Service) NavigateAndSign(ctx context.Context, cred string, p navigator.Path) (Download, error) {
	if p.File == "" {
		return Download{}, fmt.Errorf("%w: no file name given", apperr.ErrResolutionNotFound)
	}
	node, _, err := s.Navigate(ctx, cred, p)
	if err != nil {
		return Download{}, err
	}
	if node.StorageLink == "" {
		return Download{}, fmt.Errorf("%w: file %q has no storage link", apperr.ErrMalformedLocator, node.Name)
	}
	d, err := s.SignedURL(ctx, cred, node.StorageLink)
	if err != nil {
		return Download{}, err
	}
	d.Name = node.Name
	return d, nil
}
