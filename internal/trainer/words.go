package trainer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
)

type WordsFilter struct {
	Status   dal.Status
	Category string
	Search   string
	Offset   int
	Limit    int
}

// Words returns a page of the word list matching filter and the total number of matches.
func (t *Trainer) Words(ctx context.Context, chatID int64, filter WordsFilter) ([]dal.Entry, int, error) {
	var matched []dal.Entry
	err := t.view(ctx, chatID, func(st *store.State) error {
		matched = make([]dal.Entry, 0, len(st.Words))
		search := strings.ToLower(filter.Search)
		for _, w := range st.Words {
			if filter.Status != "" && w.Status != filter.Status {
				continue
			}
			if filter.Category != "" && progress.CategoryOf(w) != filter.Category {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(w.SourceText), search) &&
				!strings.Contains(strings.ToLower(w.TargetText), search) {
				continue
			}
			matched = append(matched, w)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(matched)
	from := min(max(filter.Offset, 0), total)
	to := total
	if filter.Limit > 0 {
		to = min(from+filter.Limit, total)
	}
	return matched[from:to], total, nil
}

func (t *Trainer) Word(ctx context.Context, chatID int64, id string) (dal.Entry, error) {
	var res dal.Entry
	err := t.view(ctx, chatID, func(st *store.State) error {
		i := indexOf(st.Words, id)
		if i == -1 {
			return ErrEntryNotFound
		}
		res = st.Words[i]
		return nil
	})
	return res, err
}

// AddWord appends a manually entered pair as a new entry.
func (t *Trainer) AddWord(ctx context.Context, chatID int64, source, target, categoryName string) (dal.Entry, error) {
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	if source == "" || target == "" {
		return dal.Entry{}, ErrInvalidEntry
	}

	e := dal.Entry{
		ID:         uuid.NewString(),
		SourceText: source,
		TargetText: target,
		Status:     dal.StatusNew,
		Category:   strings.ToLower(strings.TrimSpace(categoryName)),
	}
	err := t.update(ctx, chatID, func(st *store.State) error {
		for _, w := range st.Words {
			if w.Key() == e.Key() {
				return fmt.Errorf("%w: %s - %s", ErrDuplicateEntry, source, target)
			}
		}
		st.Words = append(st.Words, e)
		return nil
	})
	if err != nil {
		return dal.Entry{}, err
	}
	return e, nil
}

// Import appends entries whose pair is not yet in the word list and returns how many were added.
func (t *Trainer) Import(ctx context.Context, chatID int64, entries []dal.Entry) (int, error) {
	added := 0
	err := t.update(ctx, chatID, func(st *store.State) error {
		before := len(st.Words)
		st.Words = dal.Deduplicate(append(st.Words, entries...))
		added = len(st.Words) - before
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import words: %w", err)
	}
	return added, nil
}

// Deduplicate collapses entries sharing a pair key, keeping the first, and returns how many were removed.
func (t *Trainer) Deduplicate(ctx context.Context, chatID int64) (int, error) {
	removed := 0
	err := t.update(ctx, chatID, func(st *store.State) error {
		before := len(st.Words)
		st.Words = dal.Deduplicate(st.Words)
		removed = before - len(st.Words)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deduplicate words: %w", err)
	}
	return removed, nil
}

// ResetProgress returns every entry to the new state, keeping the word list.
func (t *Trainer) ResetProgress(ctx context.Context, chatID int64) error {
	err := t.update(ctx, chatID, func(st *store.State) error {
		for i := range st.Words {
			st.Words[i].Reset()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}

// ResetAll drops every word, setting and statistic of the chat and reseeds the word list.
func (t *Trainer) ResetAll(ctx context.Context, chatID int64) error {
	defer t.lock(chatID)()

	if _, err := t.store.Reset(ctx, chatID); err != nil {
		return fmt.Errorf("reset all: %w", err)
	}
	t.log.InfoContext(ctx, "chat state reset", "chat_id", chatID)
	return nil
}

// ImageURL resolves an illustration for the entry.
func (t *Trainer) ImageURL(ctx context.Context, chatID int64, id string) (string, error) {
	if t.images == nil {
		return "", ErrNoImages
	}
	e, err := t.Word(ctx, chatID, id)
	if err != nil {
		return "", err
	}
	return t.images.ImageURL(ctx, e.TargetText, e.SourceText)
}
