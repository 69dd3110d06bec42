package search

import (
	"strings"

	"github.com/docseek/docseek/internal/index"
)

// KeywordSearch matches record names case-insensitively. All query tokens must
// match (AND semantics). Results keep index order and score 1.
func KeywordSearch(idx *index.Index, query string, limit int) []Match {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Match{}
	}

	out := []Match{}
	for i := 0; i < idx.Len(); i++ {
		r := idx.At(i)
		name := strings.ToLower(r.Name)
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(name, tok) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, Match{Name: r.Name, Href: r.Href, Score: 1, Position: i})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func tokenize(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
