package trainer

import (
	"context"
	"fmt"
	"slices"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
)

type CategoryInfo struct {
	Name    string            `json:"name"`
	Dynamic bool              `json:"dynamic"`
	Words   int               `json:"words"`
	Stats   dal.CategoryStats `json:"stats"`
}

// Stats returns aggregate statistics computed at the current time.
func (t *Trainer) Stats(ctx context.Context, chatID int64) (dal.Stats, error) {
	var res dal.Stats
	err := t.view(ctx, chatID, func(st *store.State) error {
		res = progress.ComputeStats(st.Words, t.now())
		return nil
	})
	return res, err
}

// DueCount returns the number of entries due now.
func (t *Trainer) DueCount(ctx context.Context, chatID int64) (int, error) {
	var res int
	err := t.view(ctx, chatID, func(st *store.State) error {
		res = len(study.Due(st.Words, t.now()))
		return nil
	})
	return res, err
}

func (t *Trainer) Profile(ctx context.Context, chatID int64) (progress.Profile, error) {
	var res progress.Profile
	err := t.view(ctx, chatID, func(st *store.State) error {
		res = progress.Analyze(st.Words, category.All(st.Dynamic), &st.Patterns)
		return nil
	})
	return res, err
}

// Categories lists base and dynamic categories with their word counts and usage statistics.
func (t *Trainer) Categories(ctx context.Context, chatID int64) ([]CategoryInfo, error) {
	var res []CategoryInfo
	err := t.view(ctx, chatID, func(st *store.State) error {
		counts := make(map[string]int)
		for _, w := range st.Words {
			counts[progress.CategoryOf(w)]++
		}

		all := category.All(st.Dynamic)
		res = make([]CategoryInfo, 0, len(all))
		for _, name := range all {
			res = append(res, CategoryInfo{
				Name:    name,
				Dynamic: slices.Contains(st.Dynamic, name),
				Words:   counts[name],
				Stats:   st.CategoryStats[name],
			})
		}
		return nil
	})
	return res, err
}

func (t *Trainer) Settings(ctx context.Context, chatID int64) (dal.Settings, error) {
	var res dal.Settings
	err := t.view(ctx, chatID, func(st *store.State) error {
		res = st.Settings
		return nil
	})
	return res, err
}

// UpdateSettings validates and stores settings.
func (t *Trainer) UpdateSettings(ctx context.Context, chatID int64, settings dal.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	err := t.update(ctx, chatID, func(st *store.State) error {
		st.Settings = settings
		return nil
	})
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// Snapshot returns the whole state of the chat, e.g. for export.
func (t *Trainer) Snapshot(ctx context.Context, chatID int64) (*store.State, error) {
	var res *store.State
	err := t.view(ctx, chatID, func(st *store.State) error {
		res = st
		return nil
	})
	return res, err
}
