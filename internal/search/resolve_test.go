package search

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/embeddings"
	"github.com/docseek/docseek/internal/index"
)

// unitAt returns a 2-d unit vector whose cosine with (1, 0) is c.
func unitAt(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func mustIndex(t *testing.T, records ...index.Record) *index.Index {
	t.Helper()
	idx, err := index.New(records)
	require.NoError(t, err)
	return idx
}

func scenarioIndex(t *testing.T, a, b float64) *index.Index {
	return mustIndex(t,
		index.Record{Name: "site_plan.pdf", Vector: unitAt(a), Href: "https://h/oss/v2/buckets/wip.dm.prod/objects/site_plan.pdf"},
		index.Record{Name: "budget.xlsx", Vector: unitAt(b), Href: "https://h/oss/v2/buckets/wip.dm.prod/objects/budget.xlsx"},
	)
}

func queryEmbedder(q string) *embeddings.Static {
	return &embeddings.Static{Model: "t", Vectors: map[string][]float32{q: {1, 0}}}
}

func TestResolve_SitePlanScenario(t *testing.T) {
	idx := scenarioIndex(t, 0.81, 0.12)

	got, err := Resolve(context.Background(), queryEmbedder("site plan"), idx, "site plan", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "site_plan.pdf", got[0].Name)
	assert.InDelta(t, 0.81, got[0].Score, 1e-6)
}

func TestResolve_NothingAboveThreshold(t *testing.T) {
	idx := scenarioIndex(t, 0.2, 0.2)

	got, err := Resolve(context.Background(), queryEmbedder("q"), idx, "q", DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolve_ThresholdIsExclusive(t *testing.T) {
	idx := mustIndex(t, index.Record{Name: "a", Vector: []float32{1, 0}, Href: "h"})

	got, err := Resolve(context.Background(), queryEmbedder("q"), idx, "q", Options{Threshold: 1, TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_EmbeddingFailure(t *testing.T) {
	idx := scenarioIndex(t, 0.5, 0.5)

	_, err := Resolve(context.Background(), queryEmbedder("other"), idx, "q", DefaultOptions())
	assert.ErrorIs(t, err, apperr.ErrEmbeddingService)
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func TestResolve_WrapsForeignEmbedderErrors(t *testing.T) {
	idx := scenarioIndex(t, 0.5, 0.5)

	_, err := Resolve(context.Background(), failingEmbedder{}, idx, "q", DefaultOptions())
	assert.ErrorIs(t, err, apperr.ErrEmbeddingService)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResolve_DimensionMismatch(t *testing.T) {
	idx := scenarioIndex(t, 0.5, 0.5)
	emb := &embeddings.Static{Vectors: map[string][]float32{"q": {1, 0, 0}}}

	_, err := Resolve(context.Background(), emb, idx, "q", DefaultOptions())
	assert.ErrorIs(t, err, apperr.ErrEmbeddingService)
}

func TestRank_TiesKeepIndexOrder(t *testing.T) {
	idx := mustIndex(t,
		index.Record{Name: "first", Vector: unitAt(0.7), Href: "h1"},
		index.Record{Name: "best", Vector: unitAt(0.9), Href: "h2"},
		index.Record{Name: "second", Vector: unitAt(0.7), Href: "h3"},
		index.Record{Name: "third", Vector: unitAt(0.7), Href: "h4"},
	)

	got, err := Rank(context.Background(), idx, []float32{1, 0}, Options{Threshold: 0.3, TopK: 3})
	require.NoError(t, err)
	names := []string{}
	for _, m := range got {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"best", "first", "second"}, names)
}

func TestRank_TopKNonPositiveMeansAll(t *testing.T) {
	idx := scenarioIndex(t, 0.8, 0.7)

	got, err := Rank(context.Background(), idx, []float32{1, 0}, Options{Threshold: 0.3})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func randomIndex(t *testing.T, rng *rand.Rand, n, dim int) *index.Index {
	records := make([]index.Record, n)
	for i := range records {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		records[i] = index.Record{Name: "f", Vector: v, Href: "h"}
	}
	return mustIndex(t, records...)
}

func TestRank_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	idx := randomIndex(t, rng, 500, 8)
	qv := make([]float32, 8)
	for j := range qv {
		qv[j] = float32(rng.NormFloat64())
	}
	ctx := context.Background()

	prevCount := math.MaxInt
	for _, th := range []float64{-1, -0.5, 0, 0.1, 0.3, 0.5, 0.9, 1} {
		got, err := Rank(ctx, idx, qv, Options{Threshold: th})
		require.NoError(t, err)

		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score, "scores must be non-increasing")
		}
		for _, m := range got {
			assert.Greater(t, m.Score, th)
		}
		assert.LessOrEqual(t, len(got), prevCount, "raising the threshold must not add matches")
		prevCount = len(got)
	}
}

func TestRank_ShardedEqualsSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	idx := randomIndex(t, rng, 1000, 16)
	qv := make([]float32, 16)
	for j := range qv {
		qv[j] = float32(rng.NormFloat64())
	}

	seq, err := Rank(context.Background(), idx, qv, Options{Threshold: -1, ShardSize: 1000})
	require.NoError(t, err)
	for _, shard := range []int{1, 7, 64, 999} {
		par, err := Rank(context.Background(), idx, qv, Options{Threshold: -1, ShardSize: shard})
		require.NoError(t, err)
		assert.Equal(t, seq, par, "shard size %d", shard)
	}
}

func TestResolver_UsesDefaults(t *testing.T) {
	idx := scenarioIndex(t, 0.81, 0.42)
	r := NewResolver(queryEmbedder("q"), idx, Options{Threshold: 0.3, TopK: 1}, zap.NewNop())

	got, err := r.Resolve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "site_plan.pdf", got[0].Name)

	got, err = r.ResolveWith(context.Background(), "q", Options{Threshold: 0.3, TopK: 5})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestKeywordSearch(t *testing.T) {
	idx := mustIndex(t,
		index.Record{Name: "Site_Plan_Rev2.pdf", Vector: []float32{1}, Href: "h1"},
		index.Record{Name: "budget.xlsx", Vector: []float32{1}, Href: "h2"},
		index.Record{Name: "site_survey.pdf", Vector: []float32{1}, Href: "h3"},
	)

	got := KeywordSearch(idx, "SITE pdf", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Site_Plan_Rev2.pdf", got[0].Name)
	assert.Equal(t, "site_survey.pdf", got[1].Name)

	assert.Len(t, KeywordSearch(idx, "site", 1), 1)
	assert.Empty(t, KeywordSearch(idx, "   ", 0))
	assert.Empty(t, KeywordSearch(idx, "drawing", 0))
}
