// Package progress derives aggregate statistics and the learner profile from the word list.
package progress

import (
	"math"
	"strings"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/srs"
)

const UnknownCategory = "inne"

//nolint:gochecknoglobals // keyword table
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"dom", []string{"dom", "okno", "drzwi", "łóżko", "stół", "krzesło", "kuchnia", "łazienka"}},
	{"jedzenie", []string{"chleb", "mleko", "jabłko", "mięso", "ser", "jedzenie"}},
	{"transport", []string{"autobus", "pociąg", "rower", "samolot", "samochód"}},
	{"praca", []string{"praca", "biuro", "spotkanie", "komputer", "dokument"}},
	{"technologia", []string{"oprogramowanie", "aplikacja", "sieć", "komputer"}},
	{"natura", []string{"środowisko", "ekosystem", "natura", "drzewo"}},
	{"sport", []string{"sport", "piłka", "bieganie", "trening"}},
	{"kultura", []string{"kultura", "muzyka", "film", "sztuka"}},
}

func ComputeStats(words []dal.Entry, now time.Time) dal.Stats {
	var res dal.Stats
	res.TotalWords = len(words)
	for _, w := range words {
		if w.Status == dal.StatusLearned {
			res.LearnedWords++
		}
		if srs.IsDue(w, now) {
			res.DueWords++
		}
		res.TotalAttempts += w.Attempts
		res.CorrectAttempts += w.CorrectCount
	}
	res.SuccessRate = percent(res.CorrectAttempts, res.TotalAttempts)
	return res
}

// GuessCategory attributes a source-language word to a category by keyword match.
func GuessCategory(sourceText string) string {
	lower := strings.ToLower(sourceText)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				return ck.category
			}
		}
	}
	return UnknownCategory
}

// CategoryOf returns the assigned category or the guessed one.
func CategoryOf(e dal.Entry) string {
	if e.Category != "" {
		return e.Category
	}
	return GuessCategory(e.SourceText)
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100)) //nolint:mnd // percent
}
