package generator

import (
	"strings"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

var fallbackPairs = []Pair{ //nolint:gochecknoglobals // fixed word list
	{Source: "przykład", Target: "example"},
	{Source: "słowo", Target: "word"},
	{Source: "nauka", Target: "learning"},
	{Source: "język", Target: "language"},
	{Source: "angielski", Target: "English"},
}

// Fallback returns up to count entries from a tiny fixed word list, skipping target words
// already present in words. It is the last resort when generation produced nothing.
func (g *Generator) Fallback(words []dal.Entry, categoryName, level string, count int) []dal.Entry {
	known := make(map[string]struct{}, len(words))
	for _, w := range words {
		known[strings.ToLower(w.TargetText)] = struct{}{}
	}

	pairs := make([]Pair, 0, min(count, len(fallbackPairs)))
	for _, p := range fallbackPairs {
		if len(pairs) >= count {
			break
		}
		if _, ok := known[strings.ToLower(p.Target)]; ok {
			continue
		}
		p.Category = categoryName
		pairs = append(pairs, p)
	}

	res := g.toEntries(pairs, level)
	for i := range res {
		res[i].AutoGenerated = false
		res[i].Difficulty = dal.DifficultyMedium
	}
	return res
}
