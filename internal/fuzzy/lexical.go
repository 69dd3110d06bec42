package fuzzy

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// tokenMatch is the per-token Levenshtein similarity counted as a match.
const tokenMatch = 0.8

// minContained is the shortest normalized string credited for containment.
const minContained = 3

// containedScore is the flat credit for a whole-word containment. It does not
// depend on the length of the longer name, so siblings sharing a prefix tie.
const containedScore = 0.85

// Lexical scores candidates by string similarity of their normalized names.
type Lexical struct {
	// MinConfidence defaults to DefaultMinConfidence when zero.
	MinConfidence float64
	// Margin is the score gap at or below which two different candidates tie.
	// Zero means DefaultMargin; negative disables the check.
	Margin float64
}

// Resolve implements Resolver.
func (l Lexical) Resolve(_ context.Context, candidates []Candidate, approxName string) (string, error) {
	minConf, margin := thresholds(l.MinConfidence, l.Margin)
	return choose(l.Rank(candidates, approxName), approxName, minConf, margin)
}

// Rank scores every candidate, best first. Equal scores keep input order.
func (l Lexical) Rank(candidates []Candidate, approxName string) []Scored {
	q := Normalize(approxName)
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Scored{Candidate: c, Score: Similarity(approxName, q, c.Name)})
	}
	sortScored(out)
	return out
}

// Similarity scores name against a raw query and its normalized form.
func Similarity(raw, q, name string) float64 {
	if strings.TrimSpace(raw) == strings.TrimSpace(name) && raw != "" {
		return 1
	}
	n := Normalize(name)
	if q == "" || n == "" {
		return 0
	}
	if q == n {
		return 0.99
	}

	score := levenshtein.Similarity(q, n, nil)
	if s := tokenOverlap(q, n); s > score {
		score = s
	}
	if s := containment(q, n); s > score {
		score = s
	}
	return score
}

// tokenOverlap is a Dice coefficient over tokens, where two tokens match when
// their Levenshtein similarity is at least tokenMatch.
func tokenOverlap(q, n string) float64 {
	qt, nt := strings.Fields(q), strings.Fields(n)
	used := make([]bool, len(nt))
	matched := 0
	for _, a := range qt {
		bestJ, best := -1, 0.0
		for j, b := range nt {
			if used[j] {
				continue
			}
			if s := levenshtein.Similarity(a, b, nil); s > best {
				bestJ, best = j, s
			}
		}
		if bestJ >= 0 && best >= tokenMatch {
			used[bestJ] = true
			matched++
		}
	}
	return 2 * float64(matched) / float64(len(qt)+len(nt))
}

// containment credits a query that appears in the name starting at a word
// boundary, or the other way round.
func containment(q, n string) float64 {
	short, long := q, n
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if utf8.RuneCountInString(short) < minContained || !strings.Contains(" "+long+" ", " "+short) {
		return 0
	}
	return containedScore
}
