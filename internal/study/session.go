// Package study assembles the list of entries for a study session.
package study

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/srs"
)

var ErrEmptyStudySet = errors.New("no words to study")

type (
	Random interface {
		Shuffle(n int, swap func(i, j int))
	}

	// Generator produces up to count new entries that are not yet in the word list.
	Generator interface {
		GenerateNew(ctx context.Context, count int) ([]dal.Entry, error)
	}

	Session struct {
		// Items holds due review entries followed by at most dailyGoal new entries.
		Items []dal.Entry
		// Added holds entries generated while preparing the session; the caller appends and persists them.
		Added []dal.Entry
	}

	Builder struct {
		rnd Random
		log *slog.Logger
	}

	globalRandom struct{}
)

func NewBuilder(rnd Random, log *slog.Logger) *Builder {
	if rnd == nil {
		rnd = globalRandom{}
	}
	return &Builder{rnd: rnd, log: log}
}

// PrepareSession returns the due entries of words with review items first and new items capped at
// the daily goal. When infinite learning and auto-add are enabled and fewer new entries than the
// daily goal are due, gen is asked for the shortfall first; gen may be nil.
func (b *Builder) PrepareSession(ctx context.Context, words []dal.Entry, settings dal.Settings, gen Generator, now time.Time) (Session, error) {
	var res Session

	candidates := Due(words, now)
	newCount := countNew(candidates)
	if gen != nil && settings.InfiniteLearning && settings.AutoAddWords && newCount < settings.DailyGoal {
		added, err := gen.GenerateNew(ctx, settings.DailyGoal-newCount)
		if err != nil {
			b.log.WarnContext(ctx, "failed to replenish words for session", "error", err)
		}
		if len(added) > 0 {
			res.Added = added
			candidates = append(candidates, Due(added, now)...)
		}
	}

	b.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	review := make([]dal.Entry, 0, len(candidates))
	fresh := make([]dal.Entry, 0, len(candidates))
	for _, e := range candidates {
		if e.Status == dal.StatusNew {
			fresh = append(fresh, e)
		} else {
			review = append(review, e)
		}
	}
	if len(fresh) > settings.DailyGoal {
		fresh = fresh[:settings.DailyGoal]
	}

	res.Items = append(review, fresh...)
	if len(res.Items) == 0 {
		return res, ErrEmptyStudySet
	}
	return res, nil
}

// Due returns the entries of words that are due at now, in order.
func Due(words []dal.Entry, now time.Time) []dal.Entry {
	res := make([]dal.Entry, 0, len(words))
	for _, w := range words {
		if srs.IsDue(w, now) {
			res = append(res, w)
		}
	}
	return res
}

func countNew(words []dal.Entry) int {
	res := 0
	for _, w := range words {
		if w.Status == dal.StatusNew {
			res++
		}
	}
	return res
}

func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
