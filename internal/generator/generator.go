// Package generator produces new vocabulary entries from a provider, never repeating known pairs.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

const avoidWords = 20

var ErrNoProvider = errors.New("no generation provider configured")

type (
	Request struct {
		Category string
		Level    string
		Count    int
		// Avoid lists recently added target words the provider should not repeat.
		Avoid []string
		// Known holds every lowercased target already in the list or in the current batch.
		// Providers must not modify or retain it.
		Known map[string]struct{}
	}

	// Provider returns candidate pairs for a category. Failures to reach the backing
	// service are ordinary errors; unreadable replies wrap ErrParse.
	Provider interface {
		Generate(ctx context.Context, req Request) ([]Pair, error)
	}

	// Scoped is implemented by providers that serve several categories from one word source.
	// Categories resolving to a scope already asked are skipped during top-ups.
	Scoped interface {
		Scope(category, level string) string
	}

	Input struct {
		State    *category.State
		Count    int
		Provider Provider
		// Checker is optional; nil skips the self-check pass.
		Checker Checker
		// Minter is optional; nil mints categories from level templates.
		Minter category.Minter
		Now    time.Time
	}

	Result struct {
		Category string
		Entries  []dal.Entry
	}

	Generator struct {
		selector *category.Selector
		newID    func() string
		log      *slog.Logger
	}
)

func New(selector *category.Selector, log *slog.Logger) *Generator {
	return &Generator{
		selector: selector,
		newID:    uuid.NewString,
		log:      log,
	}
}

// Generate picks a category, asks the provider for in.Count pairs and tops up the batch from the
// other categories when duplicates leave it short. Provider failures yield fewer entries; an error
// is returned only when nothing was produced and a reply could not be parsed.
func (g *Generator) Generate(ctx context.Context, in Input) (Result, error) {
	if in.Provider == nil {
		return Result{}, ErrNoProvider
	}
	if in.Count <= 0 {
		return Result{}, nil
	}

	st := in.State
	selected := g.selector.Select(ctx, st, in.Minter, in.Now)
	b := &batch{
		want:    in.Count,
		seen:    knownKeys(st.Words),
		targets: knownTargets(st.Words),
		scopes:  make(map[string]struct{}),
		pairs:   make([]Pair, 0, in.Count),
	}
	req := Request{Level: st.Level, Avoid: recentTargets(st.Words)}

	g.collect(ctx, in.Provider, req, selected, b)
	for _, c := range category.All(st.Dynamic) {
		if b.full() || ctx.Err() != nil {
			break
		}
		if c == selected {
			continue
		}
		g.collect(ctx, in.Provider, req, c, b)
	}

	pairs := b.pairs
	if in.Checker != nil {
		pairs = unique(g.selfCheck(ctx, in.Checker, pairs), knownKeys(st.Words))
	}

	if len(pairs) == 0 && b.parseErr != nil {
		return Result{Category: selected}, b.parseErr
	}
	if len(pairs) < in.Count {
		g.log.InfoContext(ctx, "generated fewer words than requested", "requested", in.Count, "generated", len(pairs))
	}

	return Result{Category: selected, Entries: g.toEntries(pairs, st.Level)}, nil
}

type batch struct {
	want     int
	seen     map[string]struct{}
	targets  map[string]struct{}
	scopes   map[string]struct{}
	pairs    []Pair
	parseErr error
}

func (b *batch) full() bool {
	return len(b.pairs) >= b.want
}

func (g *Generator) collect(ctx context.Context, p Provider, req Request, c string, b *batch) {
	if scoped, ok := p.(Scoped); ok {
		scope := scoped.Scope(c, req.Level)
		if _, asked := b.scopes[scope]; asked {
			return
		}
		b.scopes[scope] = struct{}{}
	}

	req.Category = c
	req.Count = b.want - len(b.pairs)
	req.Known = b.targets

	got, err := p.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, ErrParse) && b.parseErr == nil {
			b.parseErr = err
		}
		g.log.WarnContext(ctx, "failed to generate words", "category", c, "error", err)
		return
	}

	valid, dropped := Valid(got)
	if dropped > 0 {
		g.log.WarnContext(ctx, "provider returned invalid pairs", "category", c, "claimed", len(got), "valid", len(valid))
	}

	for _, pair := range valid {
		if b.full() {
			return
		}
		key := dal.PairKey(pair.Source, pair.Target)
		if _, ok := b.seen[key]; ok {
			continue
		}
		b.seen[key] = struct{}{}
		b.targets[strings.ToLower(pair.Target)] = struct{}{}
		if pair.Category == "" {
			pair.Category = c
		}
		b.pairs = append(b.pairs, pair)
	}
}

func (g *Generator) toEntries(pairs []Pair, level string) []dal.Entry {
	difficulty := dal.DifficultyForLevel(level)
	res := make([]dal.Entry, 0, len(pairs))
	for _, p := range pairs {
		res = append(res, dal.Entry{
			ID:            g.newID(),
			SourceText:    p.Source,
			TargetText:    p.Target,
			Status:        dal.StatusNew,
			Category:      p.Category,
			Difficulty:    difficulty,
			Level:         level,
			AutoGenerated: true,
			Verified:      p.Verified,
			Sources:       p.Sources,
			Examples:      p.Examples,
		})
	}
	return res
}

func knownKeys(words []dal.Entry) map[string]struct{} {
	res := make(map[string]struct{}, len(words))
	for _, w := range words {
		res[w.Key()] = struct{}{}
	}
	return res
}

// unique drops pairs whose key is in seen or repeats an earlier pair.
func unique(pairs []Pair, seen map[string]struct{}) []Pair {
	res := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		key := dal.PairKey(p.Source, p.Target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, p)
	}
	return res
}

func knownTargets(words []dal.Entry) map[string]struct{} {
	res := make(map[string]struct{}, len(words))
	for _, w := range words {
		res[strings.ToLower(w.TargetText)] = struct{}{}
	}
	return res
}

func recentTargets(words []dal.Entry) []string {
	from := max(0, len(words)-avoidWords)
	res := make([]string, 0, len(words)-from)
	for _, w := range words[from:] {
		res = append(res, w.TargetText)
	}
	return res
}
