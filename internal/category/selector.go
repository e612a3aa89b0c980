// Package category picks the topic of the next generation request, occasionally minting a new one.
package category

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

const (
	MaxCategories = 50

	mintMinAccuracy = 70
	mintCooldown    = 7 * 24 * time.Hour
	mintChance      = 0.2
	topChoices      = 3

	defaultSuccessRate = 0.5
)

type (
	// Random is the source of randomness used for scoring and picking.
	Random interface {
		Float64() float64
		IntN(n int) int
	}

	MintRequest struct {
		Level     string
		Existing  []string
		WeakAreas []string
	}

	// Minter proposes one new category name. An empty reply means no proposal.
	Minter interface {
		ProposeCategory(ctx context.Context, req MintRequest) (string, error)
	}

	// State is the part of a learner's state the selector reads and, when minting, extends.
	State struct {
		Level           string
		Words           []dal.Entry
		Dynamic         []string
		Stats           map[string]dal.CategoryStats
		WeakAreas       []string
		AverageAccuracy int
	}

	Selector struct {
		rnd Random
		log *slog.Logger
	}

	scored struct {
		category string
		score    float64
	}

	globalRandom struct{}
)

func NewSelector(rnd Random, log *slog.Logger) *Selector {
	if rnd == nil {
		rnd = globalRandom{}
	}
	return &Selector{rnd: rnd, log: log}
}

// Select returns the category for the next batch. minter may be nil, then level templates are used.
func (s *Selector) Select(ctx context.Context, st *State, minter Minter, now time.Time) string {
	if s.ShouldMint(st, now) {
		if name, ok := s.Mint(ctx, st, minter); ok {
			AddDynamic(st, name, now)
			s.log.InfoContext(ctx, "new dynamic category", "category", name)
			return name
		}
	}
	return s.BestExisting(st)
}

// ShouldMint holds only when the category cap is not reached, accuracy is at least 70%,
// the last dynamic category is a week old and a 20% draw succeeds.
func (s *Selector) ShouldMint(st *State, now time.Time) bool {
	if len(All(st.Dynamic)) >= MaxCategories {
		return false
	}
	if st.AverageAccuracy < mintMinAccuracy {
		return false
	}
	if last, ok := lastDynamicUse(st); ok && now.Sub(last) < mintCooldown {
		return false
	}
	return s.rnd.Float64() < mintChance
}

// Mint asks minter (or the level templates) for a proposal and validates it.
func (s *Selector) Mint(ctx context.Context, st *State, minter Minter) (string, bool) {
	existing := All(st.Dynamic)
	if minter == nil {
		minter = templateMinter{rnd: s.rnd}
	}

	proposal, err := minter.ProposeCategory(ctx, MintRequest{
		Level:     st.Level,
		Existing:  existing,
		WeakAreas: st.WeakAreas,
	})
	if err != nil {
		s.log.WarnContext(ctx, "failed to propose category", "error", err)
		return "", false
	}
	if proposal == "" {
		return "", false
	}

	name, err := Normalize(proposal, existing)
	if err != nil {
		s.log.DebugContext(ctx, "category proposal rejected", "error", err)
		return "", false
	}
	return name, true
}

// BestExisting scores every known category and picks uniformly among the top three.
func (s *Selector) BestExisting(st *State) string {
	categories := All(st.Dynamic)
	counts := make(map[string]int, len(categories))
	for _, w := range st.Words {
		counts[w.Category]++
	}

	scores := make([]scored, 0, len(categories))
	for _, c := range categories {
		stats, ok := st.Stats[c]
		if !ok {
			stats.SuccessRate = defaultSuccessRate
		}

		score := max(0, 100-2*float64(counts[c])) //nolint:mnd // usage penalty
		if slices.Contains(st.WeakAreas, c) {
			score += 30
		}
		if stats.SuccessRate < 0.6 { //nolint:mnd // practice threshold
			score += 20
		}
		score += s.rnd.Float64() * 20 //nolint:mnd // exploration
		scores = append(scores, scored{category: c, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	top := min(topChoices, len(scores))
	return scores[s.rnd.IntN(top)].category
}

// AddDynamic registers a minted category with zeroed stats.
func AddDynamic(st *State, name string, now time.Time) bool {
	if slices.Contains(st.Dynamic, name) {
		return false
	}
	st.Dynamic = append(st.Dynamic, name)
	if st.Stats == nil {
		st.Stats = make(map[string]dal.CategoryStats)
	}
	st.Stats[name] = dal.CategoryStats{WordsGenerated: 0, SuccessRate: 0, LastUsed: now}
	return true
}

func lastDynamicUse(st *State) (time.Time, bool) {
	if len(st.Dynamic) == 0 {
		return time.Time{}, false
	}
	stats, ok := st.Stats[st.Dynamic[len(st.Dynamic)-1]]
	if !ok {
		return time.Time{}, false
	}
	return stats.LastUsed, true
}

type templateMinter struct {
	rnd Random
}

func (m templateMinter) ProposeCategory(_ context.Context, req MintRequest) (string, error) {
	templates, ok := levelTemplates[req.Level]
	if !ok {
		templates = levelTemplates["B1"]
	}

	unused := make([]string, 0, len(templates))
	for _, c := range templates {
		if !slices.Contains(req.Existing, c) {
			unused = append(unused, c)
		}
	}
	if len(unused) == 0 {
		return "", nil
	}
	return unused[m.rnd.IntN(len(unused))], nil
}

func (globalRandom) Float64() float64 { return rand.Float64() } //nolint:gosec // not security sensitive
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }   //nolint:gosec // not security sensitive
