package trainer

import (
	"context"
	"fmt"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/srs"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
)

// sessionGenerator generates session top-ups into the locked state the session is prepared from.
type sessionGenerator struct {
	t  *Trainer
	st *store.State
}

func (g sessionGenerator) GenerateNew(ctx context.Context, count int) ([]dal.Entry, error) {
	return g.t.generate(ctx, g.st, count)
}

// PrepareSession returns the study set of the chat. Words generated to reach the daily goal are
// stored before the set is returned. study.ErrEmptyStudySet is returned when nothing is due.
func (t *Trainer) PrepareSession(ctx context.Context, chatID int64) ([]dal.Entry, error) {
	var (
		items      []dal.Entry
		sessionErr error
	)
	err := t.update(ctx, chatID, func(st *store.State) error {
		session, err := t.builder.PrepareSession(ctx, st.Words, st.Settings, sessionGenerator{t: t, st: st}, t.now())
		if err != nil && len(session.Added) == 0 {
			return err
		}
		st.Words = append(st.Words, session.Added...)
		items, sessionErr = session.Items, err
		return nil
	})
	if err == nil {
		err = sessionErr
	}
	if err != nil {
		return nil, fmt.Errorf("prepare session: %w", err)
	}
	return items, nil
}

type AnswerResult struct {
	Entry   dal.Entry   `json:"entry"`
	Outcome srs.Outcome `json:"outcome"`
}

// Answer records a reply to the entry, reschedules it and updates usage statistics and the learning profile.
func (t *Trainer) Answer(ctx context.Context, chatID int64, id string, correct bool) (AnswerResult, error) {
	var res AnswerResult
	err := t.update(ctx, chatID, func(st *store.State) error {
		i := indexOf(st.Words, id)
		if i == -1 {
			return ErrEntryNotFound
		}

		now := t.now()
		learner := srs.Learner{
			LearningSpeed:   st.Patterns.LearningSpeed,
			AverageAccuracy: progress.AverageAccuracy(st.Words),
		}
		e := &st.Words[i]
		out := t.scheduler(st.Settings).RecordAnswer(ctx, e, correct, st.Settings, learner, now)
		if out.Difficult {
			st.Patterns.DifficultWords = progress.TrackDifficultWord(st.Patterns.DifficultWords, e.TargetText)
		}
		category.RecordUsage(st.CategoryStats, progress.CategoryOf(*e), correct, now)
		progress.Analyze(st.Words, category.All(st.Dynamic), &st.Patterns)

		res = AnswerResult{Entry: *e, Outcome: out}
		return nil
	})
	if err != nil {
		return AnswerResult{}, fmt.Errorf("record answer: %w", err)
	}
	return res, nil
}
