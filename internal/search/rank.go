package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/docseek/docseek/internal/index"
)

// Rank scores qv against every record of idx and applies the ranking policy:
// keep scores above the threshold, sort by descending score with ties in index
// order, and truncate to TopK. The result does not depend on sharding.
func Rank(ctx context.Context, idx *index.Index, qv []float32, opts Options) ([]Match, error) {
	scores, err := scoreAll(ctx, idx, qv, opts.ShardSize)
	if err != nil {
		return nil, err
	}

	out := make([]Match, 0)
	for i, s := range scores {
		if s <= opts.Threshold {
			continue
		}
		r := idx.At(i)
		out = append(out, Match{Name: r.Name, Href: r.Href, Score: s, Position: i})
	}
	SortMatches(out)
	if opts.TopK > 0 && len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return out, nil
}

// SortMatches sorts by score (descending), then by index position (ascending).
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Score == ms[j].Score {
			return ms[i].Position < ms[j].Position
		}
		return ms[i].Score > ms[j].Score
	})
}

func scoreAll(ctx context.Context, idx *index.Index, qv []float32, shardSize int) ([]float64, error) {
	if shardSize <= 0 {
		shardSize = DefaultShardSize
	}
	n := idx.Len()
	scores := make([]float64, n)

	if n <= shardSize {
		return scores, scoreRange(idx, qv, scores, 0, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += shardSize {
		end := min(start+shardSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return scoreRange(idx, qv, scores, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// scoreRange writes scores[start:end]; shards never overlap.
func scoreRange(idx *index.Index, qv []float32, scores []float64, start, end int) error {
	for i := start; i < end; i++ {
		s, err := index.Cosine(qv, idx.At(i).Vector)
		if err != nil {
			return err
		}
		scores[i] = s
	}
	return nil
}
