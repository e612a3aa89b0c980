package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

func TestComputeStats(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	words := []dal.Entry{
		{Status: dal.StatusNew},
		{Status: dal.StatusLearning, Attempts: 3, CorrectCount: 1, NextReviewAt: &past},
		{Status: dal.StatusLearned, Attempts: 4, CorrectCount: 4, NextReviewAt: &future},
	}

	stats := ComputeStats(words, now)
	assert.Equal(t, dal.Stats{
		TotalWords:      3,
		LearnedWords:    1,
		DueWords:        2,
		SuccessRate:     71,
		TotalAttempts:   7,
		CorrectAttempts: 5,
	}, stats)

	assert.Zero(t, ComputeStats(nil, now).SuccessRate)
}

func TestAverageAccuracyAndSpeed(t *testing.T) {
	t.Parallel()

	words := []dal.Entry{
		{Attempts: 2, CorrectCount: 2},
		{Attempts: 4, CorrectCount: 1},
		{Attempts: 0},
	}
	assert.Equal(t, 63, AverageAccuracy(words))
	assert.Equal(t, 0, AverageAccuracy([]dal.Entry{{Attempts: 0}}))

	assert.Equal(t, dal.SpeedFast, SpeedFor(81))
	assert.Equal(t, dal.SpeedMedium, SpeedFor(80))
	assert.Equal(t, dal.SpeedMedium, SpeedFor(50))
	assert.Equal(t, dal.SpeedSlow, SpeedFor(49))
}

func TestGuessCategory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dom", GuessCategory("Okno"))
	assert.Equal(t, "transport", GuessCategory("samochód"))
	assert.Equal(t, UnknownCategory, GuessCategory("kot"))
	assert.Equal(t, "zwierzęta", CategoryOf(dal.Entry{SourceText: "kot", Category: "zwierzęta"}))
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	words := []dal.Entry{
		{SourceText: "chleb", Category: "jedzenie", Attempts: 4, CorrectCount: 1},
		{SourceText: "stół", Attempts: 2, CorrectCount: 2, Status: dal.StatusLearned},
		{SourceText: "pociąg", Category: "transport"},
	}
	patterns := dal.NewLearningPatterns()
	patterns.DifficultWords = []string{"bread"}

	profile := Analyze(words, []string{"dom", "jedzenie", "transport", "sport"}, &patterns)

	assert.Equal(t, 3, profile.TotalWords)
	assert.Equal(t, 1, profile.LearnedWords)
	assert.Equal(t, 63, profile.AverageAccuracy)
	assert.Equal(t, dal.SpeedMedium, profile.LearningSpeed)
	assert.Equal(t, []string{"jedzenie"}, profile.WeakAreas)
	assert.Equal(t, []string{"jedzenie"}, patterns.WeakAreas)
	assert.Equal(t, []string{"bread"}, profile.DifficultWords)
	require.Len(t, profile.Categories, 3)
	assert.Equal(t, CategoryPerformance{Category: "dom", Words: 1, Attempts: 2, Accuracy: 100, correct: 2}, profile.Categories[0])
}

func TestTrackDifficultWord(t *testing.T) {
	t.Parallel()

	var list []string
	list = TrackDifficultWord(list, "table")
	list = TrackDifficultWord(list, "table")
	assert.Equal(t, []string{"table"}, list)

	for i := range 25 {
		list = TrackDifficultWord(list, fmt.Sprintf("w%d", i))
	}
	require.Len(t, list, MaxDifficultWords)
	assert.Equal(t, "w5", list[0])
	assert.Equal(t, "w24", list[len(list)-1])
}
