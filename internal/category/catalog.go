package category

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

const (
	minNameLength = 3
	maxNameLength = 20
)

var (
	ErrInvalidCategory = errors.New("invalid category")

	namePattern = regexp.MustCompile(`(?i)^[a-ząćęłńóśźż\s]+$`) //nolint:gochecknoglobals // compiled once

	baseCategories = []string{ //nolint:gochecknoglobals // fixed catalogue
		"dom", "praca", "jedzenie", "transport", "natura", "technologia", "sport", "kultura",
		"zdrowie", "edukacja", "rodzina", "emocje", "czas", "pogoda", "hobby", "zakupy",
		"podróże", "ubrania", "ciało", "kolory", "liczby", "kierunki", "muzyka", "sztuka",
		"zwierzęta", "rośliny", "narzędzia", "materiały", "komunikacja", "społeczeństwo",
	}

	levelTemplates = map[string][]string{ //nolint:gochecknoglobals // fixed catalogue
		"A1": {"dom", "jedzenie", "rodzina", "zwierzęta", "kolory"},
		"A2": {"szkoła", "praca", "hobby", "sport", "zakupy"},
		"B1": {"zdrowie", "technologia", "podróże", "kultura", "środowisko"},
		"B2": {"biznes", "polityka", "nauka", "media", "psychologia"},
		"C1": {"filozofia", "ekonomia", "prawo", "medycyna", "inżynieria"},
		"C2": {"dyplomacja", "literatura", "architektura", "astronomia", "lingwistyka"},
	}
)

// Base returns a copy of the fixed category set.
func Base() []string {
	return slices.Clone(baseCategories)
}

// All returns the base categories followed by the dynamic ones.
func All(dynamic []string) []string {
	res := make([]string, 0, len(baseCategories)+len(dynamic))
	res = append(res, baseCategories...)
	for _, c := range dynamic {
		if !slices.Contains(res, c) {
			res = append(res, c)
		}
	}
	return res
}

// Normalize trims and lowercases name and checks it can become a new category next to existing.
func Normalize(name string, existing []string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	length := len([]rune(name))
	if length < minNameLength || length > maxNameLength {
		return "", fmt.Errorf("%w: %q must be %d-%d characters long", ErrInvalidCategory, name, minNameLength, maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q contains unsupported characters", ErrInvalidCategory, name)
	}
	if slices.Contains(existing, name) {
		return "", fmt.Errorf("%w: %q already exists", ErrInvalidCategory, name)
	}
	return name, nil
}

// RecordUsage updates usage statistics of category after an answer.
func RecordUsage(stats map[string]dal.CategoryStats, category string, correct bool, now time.Time) {
	s, ok := stats[category]
	if !ok {
		s = dal.CategoryStats{LastUsed: now}
	}
	s.WordsGenerated++
	s.LastUsed = now
	if correct {
		s.SuccessRate = (s.SuccessRate + 1) / 2 //nolint:mnd // moving average
	} else {
		s.SuccessRate *= 0.9
	}
	stats[category] = s
}
