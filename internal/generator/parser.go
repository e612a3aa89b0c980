package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

var (
	ErrParse = errors.New("parse provider response")

	fencePattern   = regexp.MustCompile("(?i)```json|```") //nolint:gochecknoglobals // compiled once
	salvagePattern = regexp.MustCompile(                   //nolint:gochecknoglobals // compiled once
		`(?i)"(?:polish|sourceText)"\s*:\s*"([^"]+)"[\s\S]*?"(?:english|targetText)"\s*:\s*"([^"]+)"`,
	)
)

type (
	// Pair is a generated word pair before it becomes an Entry.
	Pair struct {
		Source   string
		Target   string
		Category string
		Verified bool
		Sources  []dal.Source
		Examples []dal.Example
	}

	rawItem struct {
		Polish     string       `json:"polish"`
		English    string       `json:"english"`
		SourceText string       `json:"sourceText"`
		TargetText string       `json:"targetText"`
		Category   string       `json:"category"`
		Verified   bool         `json:"verified"`
		Sources    []dal.Source `json:"sources"`
		Examples   []rawExample `json:"examples"`
	}

	rawExample struct {
		Text       string `json:"text"`
		Quote      string `json:"quote"`
		Source     string `json:"source"`
		URL        string `json:"url"`
		ExactQuote bool   `json:"exactQuote"`
	}
)

// ParseResponse extracts word pairs from free-form provider text.
// Elements that are not objects with string fields come back as empty pairs so that
// validation can count them. When the text is not a JSON array, pairs are salvaged
// with a regular expression; ErrParse is returned only when nothing can be recovered.
func ParseResponse(raw string) ([]Pair, error) {
	pairs, err := parseJSON(raw)
	if err == nil {
		return pairs, nil
	}

	salvaged := salvage(raw)
	if len(salvaged) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return salvaged, nil
}

func cleanResponse(raw string) string {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	first := strings.Index(cleaned, "[")
	last := strings.LastIndex(cleaned, "]")
	if first != -1 && last > first {
		cleaned = cleaned[first : last+1]
	}
	return cleaned
}

func parseJSON(raw string) ([]Pair, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleanResponse(raw)), &items); err != nil {
		return nil, fmt.Errorf("unmarshal array: %w", err)
	}

	res := make([]Pair, 0, len(items))
	for _, item := range items {
		var it rawItem
		if err := json.Unmarshal(item, &it); err != nil {
			res = append(res, Pair{})
			continue
		}
		res = append(res, it.toPair())
	}
	return res, nil
}

func (it rawItem) toPair() Pair {
	source, target := it.Polish, it.English
	if source == "" {
		source = it.SourceText
	}
	if target == "" {
		target = it.TargetText
	}

	examples := make([]dal.Example, 0, len(it.Examples))
	for _, ex := range it.Examples {
		text := ex.Text
		if text == "" {
			text = ex.Quote
		}
		examples = append(examples, dal.Example{Text: text, Source: ex.Source, URL: ex.URL, ExactQuote: ex.ExactQuote})
	}

	return Pair{
		Source:   source,
		Target:   target,
		Category: it.Category,
		Verified: it.Verified,
		Sources:  it.Sources,
		Examples: examples,
	}
}

func salvage(raw string) []Pair {
	matches := salvagePattern.FindAllStringSubmatch(raw, -1)
	res := make([]Pair, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		source, target := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if source == "" || target == "" {
			continue
		}
		key := strings.ToLower(source) + "|" + strings.ToLower(target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, Pair{Source: source, Target: target})
	}
	return res
}

// Valid drops pairs with an empty side and reports how many were dropped.
func Valid(pairs []Pair) ([]Pair, int) {
	res := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		p.Source, p.Target = strings.TrimSpace(p.Source), strings.TrimSpace(p.Target)
		if p.Source == "" || p.Target == "" {
			continue
		}
		res = append(res, p)
	}
	return res, len(pairs) - len(res)
}
