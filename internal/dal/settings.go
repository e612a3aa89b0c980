package dal

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderFree   Provider = "free"
	ProviderOpenAI Provider = "openai"

	maxIntervalDays = 30
	maxDailyGoal    = 100
)

var ErrInvalidSettings = errors.New("invalid settings")

var levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"} //nolint:gochecknoglobals // CEFR levels

type (
	Provider string

	Settings struct {
		FirstInterval           int      `json:"firstInterval"`
		SecondInterval          int      `json:"secondInterval"`
		DailyGoal               int      `json:"dailyGoal"`
		LanguageLevel           string   `json:"languageLevel"`
		InfiniteLearning        bool     `json:"infiniteLearning"`
		AutoAddWords            bool     `json:"autoAddWords"`
		AIProvider              Provider `json:"aiProvider"`
		AIModel                 string   `json:"aiModel"`
		EnableAIRecommendations bool     `json:"enableAIRecommendations"`
		EnableAISelfCheck       bool     `json:"enableAISelfCheck"`
		ImageProvider           string   `json:"imageProvider"`
	}
)

func DefaultSettings() Settings {
	return Settings{
		FirstInterval:           1,
		SecondInterval:          7,
		DailyGoal:               10,
		LanguageLevel:           "B1",
		InfiniteLearning:        true,
		AutoAddWords:            true,
		AIProvider:              ProviderFree,
		AIModel:                 "mymemory",
		EnableAIRecommendations: true,
		EnableAISelfCheck:       true,
		ImageProvider:           "free",
	}
}

func (s Settings) Validate() error {
	errs := make([]string, 0, 5) //nolint:mnd // number of validated fields
	if s.FirstInterval < 1 || s.FirstInterval > maxIntervalDays {
		errs = append(errs, fmt.Sprintf("first interval %d must be in range 1-%d", s.FirstInterval, maxIntervalDays))
	}
	if s.SecondInterval < 1 || s.SecondInterval > maxIntervalDays {
		errs = append(errs, fmt.Sprintf("second interval %d must be in range 1-%d", s.SecondInterval, maxIntervalDays))
	}
	if s.DailyGoal < 1 || s.DailyGoal > maxDailyGoal {
		errs = append(errs, fmt.Sprintf("daily goal %d must be in range 1-%d", s.DailyGoal, maxDailyGoal))
	}
	if !IsLevel(s.LanguageLevel) {
		errs = append(errs, fmt.Sprintf("unknown language level %q", s.LanguageLevel))
	}
	if s.AIProvider != ProviderFree && s.AIProvider != ProviderOpenAI {
		errs = append(errs, fmt.Sprintf("unknown ai provider %q", s.AIProvider))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(errs, ", "))
	}
	return nil
}

func IsLevel(level string) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

// DifficultyForLevel maps a CEFR level onto the advisory difficulty label.
func DifficultyForLevel(level string) Difficulty {
	switch level {
	case "A1", "A2":
		return DifficultyEasy
	case "B1", "B2":
		return DifficultyMedium
	case "C1", "C2":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
