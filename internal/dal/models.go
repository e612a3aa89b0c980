package dal

import (
	"strings"
	"time"
)

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusLearned  Status = "learned"

	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	SpeedSlow   LearningSpeed = "slow"
	SpeedMedium LearningSpeed = "medium"
	SpeedFast   LearningSpeed = "fast"
)

type (
	Status        string
	Difficulty    string
	LearningSpeed string

	Source struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}

	Example struct {
		Text       string `json:"text"`
		Source     string `json:"source"`
		URL        string `json:"url"`
		ExactQuote bool   `json:"exactQuote"`
	}

	// Entry is one word pair together with its review state.
	Entry struct {
		ID             string     `json:"id"`
		SourceText     string     `json:"sourceText"`
		TargetText     string     `json:"targetText"`
		Status         Status     `json:"status"`
		Attempts       int        `json:"attempts"`
		CorrectCount   int        `json:"correctCount"`
		LastReviewedAt *time.Time `json:"lastReviewedAt"`
		NextReviewAt   *time.Time `json:"nextReviewAt"`
		Category       string     `json:"category,omitempty"`
		Difficulty     Difficulty `json:"difficulty,omitempty"`
		Level          string     `json:"level,omitempty"`
		AutoGenerated  bool       `json:"autoGenerated"`
		Verified       bool       `json:"verified"`
		Sources        []Source   `json:"sources,omitempty"`
		Examples       []Example  `json:"examples,omitempty"`
	}

	Stats struct {
		TotalWords      int `json:"totalWords"`
		LearnedWords    int `json:"learnedWords"`
		DueWords        int `json:"dueWords"`
		SuccessRate     int `json:"successRate"`
		TotalAttempts   int `json:"totalAttempts"`
		CorrectAttempts int `json:"correctAttempts"`
	}

	CategoryStats struct {
		WordsGenerated int       `json:"wordsGenerated"`
		SuccessRate    float64   `json:"successRate"`
		LastUsed       time.Time `json:"lastUsed"`
	}

	LearningPatterns struct {
		DifficultWords []string      `json:"difficultWords"`
		WeakAreas      []string      `json:"weakAreas"`
		LearningSpeed  LearningSpeed `json:"learningSpeed"`
	}
)

// Accuracy is the share of correct answers, zero when the entry was never answered.
func (e Entry) Accuracy() float64 {
	if e.Attempts == 0 {
		return 0
	}
	return float64(e.CorrectCount) / float64(e.Attempts)
}

func NewLearningPatterns() LearningPatterns {
	return LearningPatterns{
		DifficultWords: []string{},
		WeakAreas:      []string{},
		LearningSpeed:  SpeedMedium,
	}
}

// PairKey identifies a word pair regardless of letter case. The sides are joined with NUL,
// which never occurs in words, so hyphenated words cannot collide.
func PairKey(source, target string) string {
	return strings.ToLower(source) + "\x00" + strings.ToLower(target)
}

func (e Entry) Key() string {
	return PairKey(e.SourceText, e.TargetText)
}

// Deduplicate keeps the first entry of every pair key, preserving order.
func Deduplicate(words []Entry) []Entry {
	seen := make(map[string]struct{}, len(words))
	res := make([]Entry, 0, len(words))
	for _, w := range words {
		key := w.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, w)
	}
	return res
}

// Reset returns the entry to its never-reviewed state.
func (e *Entry) Reset() {
	e.Status = StatusNew
	e.Attempts = 0
	e.CorrectCount = 0
	e.LastReviewedAt = nil
	e.NextReviewAt = nil
}
