package progress

import (
	"math"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

const (
	MaxDifficultWords = 20

	weakAccuracy = 60
	fastAccuracy = 80
	slowAccuracy = 50
)

type (
	CategoryPerformance struct {
		Category string `json:"category"`
		Words    int    `json:"words"`
		Attempts int    `json:"attempts"`
		Accuracy int    `json:"accuracy"`

		correct int
	}

	Profile struct {
		TotalWords      int                   `json:"totalWords"`
		LearnedWords    int                   `json:"learnedWords"`
		AverageAccuracy int                   `json:"averageAccuracy"`
		LearningSpeed   dal.LearningSpeed     `json:"learningSpeed"`
		WeakAreas       []string              `json:"weakAreas"`
		DifficultWords  []string              `json:"difficultWords"`
		Categories      []CategoryPerformance `json:"categories"`
	}
)

// AverageAccuracy is the mean per-word accuracy over answered words, as a rounded percentage.
func AverageAccuracy(words []dal.Entry) int {
	var (
		sum      float64
		answered int
	)
	for _, w := range words {
		if w.Attempts == 0 {
			continue
		}
		sum += w.Accuracy()
		answered++
	}
	if answered == 0 {
		return 0
	}
	return int(math.Round(sum / float64(answered) * 100)) //nolint:mnd // percent
}

func SpeedFor(averageAccuracy int) dal.LearningSpeed {
	switch {
	case averageAccuracy > fastAccuracy:
		return dal.SpeedFast
	case averageAccuracy < slowAccuracy:
		return dal.SpeedSlow
	default:
		return dal.SpeedMedium
	}
}

// PerformanceByCategory aggregates answers per known category in the order of categories.
// Categories without words are omitted.
func PerformanceByCategory(words []dal.Entry, categories []string) []CategoryPerformance {
	byCategory := make(map[string]*CategoryPerformance, len(categories))
	for _, w := range words {
		c := CategoryOf(w)
		p, ok := byCategory[c]
		if !ok {
			p = &CategoryPerformance{Category: c}
			byCategory[c] = p
		}
		p.Words++
		p.Attempts += w.Attempts
		p.correct += w.CorrectCount
	}

	res := make([]CategoryPerformance, 0, len(byCategory))
	for _, c := range categories {
		p, ok := byCategory[c]
		if !ok {
			continue
		}
		p.Accuracy = percent(p.correct, p.Attempts)
		res = append(res, *p)
	}
	return res
}

// WeakAreas returns answered categories whose accuracy is below 60%.
func WeakAreas(perf []CategoryPerformance) []string {
	res := make([]string, 0, len(perf))
	for _, p := range perf {
		if p.Attempts > 0 && p.Accuracy < weakAccuracy {
			res = append(res, p.Category)
		}
	}
	return res
}

// Analyze recomputes the profile and refreshes the cached parts of patterns.
func Analyze(words []dal.Entry, categories []string, patterns *dal.LearningPatterns) Profile {
	perf := PerformanceByCategory(words, categories)
	avg := AverageAccuracy(words)

	patterns.LearningSpeed = SpeedFor(avg)
	patterns.WeakAreas = WeakAreas(perf)

	learned := 0
	for _, w := range words {
		if w.Status == dal.StatusLearned {
			learned++
		}
	}

	difficult := make([]string, len(patterns.DifficultWords))
	copy(difficult, patterns.DifficultWords)

	return Profile{
		TotalWords:      len(words),
		LearnedWords:    learned,
		AverageAccuracy: avg,
		LearningSpeed:   patterns.LearningSpeed,
		WeakAreas:       patterns.WeakAreas,
		DifficultWords:  difficult,
		Categories:      perf,
	}
}

// TrackDifficultWord appends word unless present, evicting the oldest entries beyond 20.
func TrackDifficultWord(list []string, word string) []string {
	for _, w := range list {
		if w == word {
			return list
		}
	}
	list = append(list, word)
	if len(list) > MaxDifficultWords {
		list = list[len(list)-MaxDifficultWords:]
	}
	return list
}
