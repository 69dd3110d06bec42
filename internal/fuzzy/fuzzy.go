// Package fuzzy resolves an approximate, human-typed name to the id of one
// candidate in a bounded set.
package fuzzy

import (
	"context"
	"fmt"
	"sort"

	"github.com/docseek/docseek/internal/apperr"
)

// Candidate is one selectable entity.
type Candidate struct {
	ID   string
	Name string
}

// Scored is a candidate with its confidence in [0, 1].
type Scored struct {
	Candidate
	Score float64
}

// Resolver picks the candidate that approxName refers to. It returns the
// candidate id or an error wrapping apperr.ErrNoConfidentMatch.
type Resolver interface {
	Resolve(ctx context.Context, candidates []Candidate, approxName string) (string, error)
}

const (
	// DefaultMinConfidence is the score below which no candidate is chosen.
	DefaultMinConfidence = 0.5
	// DefaultMargin is the lead the best candidate needs over the next
	// different one. Closer scores are reported as ambiguous.
	DefaultMargin = 0.05
)

// thresholds fills in the defaults for zero values. A negative margin
// disables the ambiguity check.
func thresholds(minConfidence, margin float64) (float64, float64) {
	if minConfidence == 0 {
		minConfidence = DefaultMinConfidence
	}
	switch {
	case margin == 0:
		margin = DefaultMargin
	case margin < 0:
		margin = -1
	}
	return minConfidence, margin
}

// Pick calls r and checks that the returned id belongs to candidates.
// Any id outside the set is reported as no confident match.
func Pick(ctx context.Context, r Resolver, candidates []Candidate, approxName string) (Candidate, error) {
	id, err := r.Resolve(ctx, candidates, approxName)
	if err != nil {
		return Candidate{}, err
	}
	for _, c := range candidates {
		if c.ID == id {
			return c, nil
		}
	}
	return Candidate{}, fmt.Errorf("%w: resolver returned %q which is not a candidate", apperr.ErrNoConfidentMatch, id)
}

// choose applies the shared confidence policy to a ranking sorted by
// descending score: the best must reach minConfidence and be strictly ahead
// of the best differing candidate by more than margin. A verbatim match
// (score 1) beats any candidate that is not verbatim.
func choose(ranked []Scored, approxName string, minConfidence, margin float64) (string, error) {
	if len(ranked) == 0 {
		return "", fmt.Errorf("%w: no candidates for %q", apperr.ErrNoConfidentMatch, approxName)
	}
	best := ranked[0]
	if best.Score < minConfidence {
		return "", fmt.Errorf("%w: best candidate for %q is %q (%.2f < %.2f)",
			apperr.ErrNoConfidentMatch, approxName, best.Name, best.Score, minConfidence)
	}
	for _, s := range ranked[1:] {
		if s.ID == best.ID {
			continue
		}
		if best.Score >= 1 && s.Score < 1 {
			break
		}
		if best.Score-s.Score <= margin {
			return "", fmt.Errorf("%w: %q is ambiguous between %q and %q",
				apperr.ErrNoConfidentMatch, approxName, best.Name, s.Name)
		}
		break
	}
	return best.ID, nil
}

func sortScored(ss []Scored) {
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Score > ss[j].Score })
}
