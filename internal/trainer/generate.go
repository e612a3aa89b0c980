package trainer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
)

const replenishTimeout = 5 * time.Minute

type ReplenishResult struct {
	ChatID int64
	Added  int
	Err    error
}

// generate produces count new entries for st and records any category minted on the way in st.
// The entries are not appended to st.Words.
func (t *Trainer) generate(ctx context.Context, st *store.State, count int) ([]dal.Entry, error) {
	cs := &category.State{
		Level:           st.Settings.LanguageLevel,
		Words:           st.Words,
		Dynamic:         st.Dynamic,
		Stats:           st.CategoryStats,
		WeakAreas:       st.Patterns.WeakAreas,
		AverageAccuracy: progress.AverageAccuracy(st.Words),
	}

	res, err := t.generator.Generate(ctx, t.generationInput(ctx, st, cs, count))
	st.Dynamic, st.CategoryStats = cs.Dynamic, cs.Stats
	if err != nil {
		return nil, fmt.Errorf("generate words: %w", err)
	}

	t.log.DebugContext(ctx, "words generated", "chat_id", st.ChatID, "category", res.Category, "count", len(res.Entries))
	return res.Entries, nil
}

// Generate adds up to count new words to the chat and returns them. A chat left without any word
// gets the fixed fallback words instead of nothing. Unparsable provider replies are returned as errors.
func (t *Trainer) Generate(ctx context.Context, chatID int64, count int) ([]dal.Entry, error) {
	var added []dal.Entry
	err := t.update(ctx, chatID, func(st *store.State) error {
		entries, err := t.generate(ctx, st, count)
		if err != nil {
			return err
		}
		if len(entries) == 0 && len(st.Words) == 0 {
			entries = t.generator.Fallback(st.Words, progress.UnknownCategory, st.Settings.LanguageLevel, count)
		}
		st.Words = append(st.Words, entries...)
		added = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Results delivers the outcome of background replenishments.
func (t *Trainer) Results() <-chan ReplenishResult {
	return t.results
}

// Replenish tops up the new words of the chat to its daily goal in the background. The generated words
// are stored once they are ready, even if ctx is canceled meanwhile; the outcome is sent to Results.
func (t *Trainer) Replenish(ctx context.Context, chatID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), replenishTimeout)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		added, err := t.replenish(ctx, chatID)
		if err != nil {
			t.log.ErrorContext(ctx, "failed to replenish words", "chat_id", chatID, "error", err)
		}

		select {
		case t.results <- ReplenishResult{ChatID: chatID, Added: added, Err: err}:
		default:
			t.log.DebugContext(ctx, "replenish result dropped", "chat_id", chatID)
		}
	}()
}

func (t *Trainer) replenish(ctx context.Context, chatID int64) (int, error) {
	var snapshot *store.State
	err := t.view(ctx, chatID, func(st *store.State) error {
		snapshot = st
		return nil
	})
	if err != nil {
		return 0, err
	}

	settings := snapshot.Settings
	if !settings.InfiniteLearning || !settings.AutoAddWords {
		return 0, nil
	}
	shortfall := settings.DailyGoal - countNew(study.Due(snapshot.Words, t.now()))
	if shortfall <= 0 {
		return 0, nil
	}

	// generation talks to remote providers, so the chat stays unlocked meanwhile
	entries, err := t.generate(ctx, snapshot, shortfall)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	added := 0
	err = t.update(ctx, chatID, func(st *store.State) error {
		before := len(st.Words)
		st.Words = dal.Deduplicate(append(st.Words, entries...))
		added = len(st.Words) - before

		for _, name := range snapshot.Dynamic {
			if slices.Contains(st.Dynamic, name) {
				continue
			}
			st.Dynamic = append(st.Dynamic, name)
			if _, ok := st.CategoryStats[name]; !ok {
				st.CategoryStats[name] = snapshot.CategoryStats[name]
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store replenished words: %w", err)
	}
	return added, nil
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
