package embeddings

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/docseek/docseek/internal/apperr"
)

// Static is a Provider backed by a fixed text → vector table. Tests and
// offline tooling that already hold the vectors use it.
type Static struct {
	Model   string
	Vectors map[string][]float32

	calls atomic.Int64
}

func (s *Static) ModelID() string { return "static:" + s.Model }

func (s *Static) Dim() int {
	for _, v := range s.Vectors {
		return len(v)
	}
	return 0
}

// Calls returns how many times Embed was called.
func (s *Static) Calls() int { return int(s.calls.Load()) }

func (s *Static) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	v, ok := s.Vectors[text]
	if !ok {
		return nil, fmt.Errorf("%w: no vector for %q", apperr.ErrEmbeddingService, text)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}
