// Package srs decides when a vocabulary entry is due and how far its next review is pushed after an answer.
package srs

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

const (
	Day = 24 * time.Hour

	MaxIntervalDays = 30

	difficultMinAttempts = 3
	difficultAccuracy    = 0.5
)

type (
	// IntervalAdvisor suggests a review interval in days. The reply is free text that must hold an integer in 1..30.
	IntervalAdvisor interface {
		RecommendInterval(ctx context.Context, req AdviceRequest) (string, error)
	}

	AdviceRequest struct {
		Entry           dal.Entry
		Correct         bool
		LearningSpeed   dal.LearningSpeed
		AverageAccuracy int
	}

	// Learner carries the aggregate profile values the advisor is given.
	Learner struct {
		LearningSpeed   dal.LearningSpeed
		AverageAccuracy int
	}

	Outcome struct {
		IntervalDays int
		Advised      bool
		// Difficult is set for an incorrect answer once accuracy over at least 3 attempts falls below 50%.
		Difficult bool
	}

	Scheduler struct {
		advisor IntervalAdvisor
		log     *slog.Logger
	}
)

// NewScheduler returns a scheduler. advisor may be nil.
func NewScheduler(advisor IntervalAdvisor, log *slog.Logger) *Scheduler {
	return &Scheduler{advisor: advisor, log: log}
}

// IsDue reports whether e is eligible for review at now.
func IsDue(e dal.Entry, now time.Time) bool {
	if e.Status == dal.StatusNew {
		return true
	}
	return e.NextReviewAt != nil && !e.NextReviewAt.After(now)
}

// StandardInterval returns the interval in days for an answer given the status before the answer.
func StandardInterval(status dal.Status, correct bool, firstInterval, secondInterval int) int {
	if !correct {
		return firstInterval
	}
	switch status {
	case dal.StatusNew:
		return firstInterval
	case dal.StatusLearning:
		return secondInterval
	default:
		return min(2*secondInterval, MaxIntervalDays)
	}
}

// NextStatus returns the status after an answer.
func NextStatus(status dal.Status, correct bool) dal.Status {
	if !correct {
		return dal.StatusLearning
	}
	switch status {
	case dal.StatusNew:
		return dal.StatusLearning
	default:
		return dal.StatusLearned
	}
}

// RecordAnswer applies one answer to e in place.
func (s *Scheduler) RecordAnswer(ctx context.Context, e *dal.Entry, correct bool, settings dal.Settings, learner Learner, now time.Time) Outcome {
	e.Attempts++
	if correct {
		e.CorrectCount++
	}
	reviewedAt := now
	e.LastReviewedAt = &reviewedAt

	var out Outcome
	out.IntervalDays = StandardInterval(e.Status, correct, settings.FirstInterval, settings.SecondInterval)
	if settings.EnableAIRecommendations && s.advisor != nil {
		if days, ok := s.advise(ctx, *e, correct, learner); ok {
			out.IntervalDays = days
			out.Advised = true
		}
	}

	e.Status = NextStatus(e.Status, correct)
	next := now.Add(time.Duration(out.IntervalDays) * Day)
	e.NextReviewAt = &next

	out.Difficult = !correct && e.Attempts >= difficultMinAttempts && e.Accuracy() < difficultAccuracy
	return out
}

func (s *Scheduler) advise(ctx context.Context, e dal.Entry, correct bool, learner Learner) (int, bool) {
	reply, err := s.advisor.RecommendInterval(ctx, AdviceRequest{
		Entry:           e,
		Correct:         correct,
		LearningSpeed:   learner.LearningSpeed,
		AverageAccuracy: learner.AverageAccuracy,
	})
	if err != nil {
		s.log.WarnContext(ctx, "interval advisor failed, using standard interval", "error", err)
		return 0, false
	}

	days, ok := ParseInterval(reply)
	if !ok {
		s.log.DebugContext(ctx, "interval advisor reply rejected", "reply", reply)
	}
	return days, ok
}

// ParseInterval accepts a reply that is exactly an integer day count in 1..30.
func ParseInterval(reply string) (int, bool) {
	days, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || days < 1 || days > MaxIntervalDays {
		return 0, false
	}
	return days, true
}
