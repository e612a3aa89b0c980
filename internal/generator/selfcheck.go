package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MaxSelfCheckPairs = 20

	VerdictOK  = "ok"
	VerdictFix = "fix"
)

type (
	Verdict struct {
		Source      string `json:"polish"`
		Target      string `json:"english"`
		FixedTarget string `json:"fixedEnglish"`
		Verdict     string `json:"verdict"`
	}

	// Checker audits translation pairs and returns one verdict per pair it has an opinion on.
	Checker interface {
		CheckTranslations(ctx context.Context, pairs []Pair) ([]Verdict, error)
	}
)

// ParseVerdicts reads a JSON array of verdicts, tolerating code fences around it.
func ParseVerdicts(raw string) ([]Verdict, error) {
	var res []Verdict
	if err := json.Unmarshal([]byte(cleanResponse(raw)), &res); err != nil {
		return nil, fmt.Errorf("%w: unmarshal verdicts: %v", ErrParse, err)
	}
	return res, nil
}

func (g *Generator) selfCheck(ctx context.Context, checker Checker, pairs []Pair) []Pair {
	if len(pairs) == 0 {
		return pairs
	}

	verdicts, err := checker.CheckTranslations(ctx, pairs[:min(len(pairs), MaxSelfCheckPairs)])
	if err != nil {
		g.log.WarnContext(ctx, "self-check failed, keeping original pairs", "error", err)
		return pairs
	}
	return ApplyVerdicts(pairs, verdicts)
}

// ApplyVerdicts replaces targets of pairs with an explicit fix verdict, matching by lowercased source.
// Fixed pairs are marked verified; everything else is returned untouched.
func ApplyVerdicts(pairs []Pair, verdicts []Verdict) []Pair {
	fixes := make(map[string]string, len(verdicts))
	for _, v := range verdicts {
		source := strings.ToLower(strings.TrimSpace(v.Source))
		fixed := strings.TrimSpace(v.FixedTarget)
		if source == "" || fixed == "" || strings.ToLower(strings.TrimSpace(v.Verdict)) != VerdictFix {
			continue
		}
		fixes[source] = fixed
	}

	res := make([]Pair, len(pairs))
	copy(res, pairs)
	for i, p := range res {
		fixed, ok := fixes[strings.ToLower(strings.TrimSpace(p.Source))]
		if !ok {
			continue
		}
		res[i].Target = fixed
		res[i].Verified = true
	}
	return res
}
