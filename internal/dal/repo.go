package dal

import (
	"context"
	"errors"
	"time"
)

const (
	KeyWords             = "vocabularyWords"
	KeyStats             = "vocabularyStats"
	KeySettings          = "vocabularySettings"
	KeyLearningPatterns  = "learningPatterns"
	KeyDynamicCategories = "dynamicCategories"
	KeyCategoryStats     = "categoryUsageStats"
)

var ErrNotFound = errors.New("not found")

// StateKeys lists every key persisted for a chat.
func StateKeys() []string {
	return []string{KeyWords, KeyStats, KeySettings, KeyLearningPatterns, KeyDynamicCategories, KeyCategoryStats}
}

type (
	// StateRepository is a per-chat key-value store. Save always overwrites the whole value.
	StateRepository interface {
		Load(ctx context.Context, chatID int64, key string) (string, error)
		Save(ctx context.Context, chatID int64, key, value string) error
		Clear(ctx context.Context, chatID int64) error
		ChatIDs(ctx context.Context) ([]int64, error)
	}

	AuthConfirmationRepository interface {
		InsertAuthConfirmation(ctx context.Context, chatID int64, token string, expiresIn time.Duration) error
		IsConfirmed(ctx context.Context, chatID int64, token string) (bool, error)
		ConfirmAuthConfirmation(ctx context.Context, chatID int64, token string) error
		DeleteAuthConfirmation(ctx context.Context, chatID int64, token string) error
	}

	Repository interface {
		Transact(ctx context.Context, txFunc func(r Repository) error) error
		StateRepository
		AuthConfirmationRepository
	}
)
