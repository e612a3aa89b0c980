// Package store keeps the per-chat application state as JSON values in the key-value repository.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

type (
	// State is everything persisted for one chat.
	State struct {
		ChatID        int64
		Words         []dal.Entry
		Stats         dal.Stats
		Settings      dal.Settings
		Patterns      dal.LearningPatterns
		Dynamic       []string
		CategoryStats map[string]dal.CategoryStats
	}

	Store struct {
		repo  dal.Repository
		newID func() string
		log   *slog.Logger
	}
)

func New(repo dal.Repository, log *slog.Logger) *Store {
	return &Store{
		repo:  repo,
		newID: uuid.NewString,
		log:   log,
	}
}

// Load reads all keys of a chat. Missing values fall back to defaults, stored values are merged
// over them, and a chat without a word list gets the seed words.
func (s *Store) Load(ctx context.Context, chatID int64) (*State, error) {
	st := s.defaultState(chatID)
	seed := st.Words
	st.Words = nil

	targets := map[string]any{
		dal.KeyWords:             &st.Words,
		dal.KeyStats:             &st.Stats,
		dal.KeySettings:          &st.Settings,
		dal.KeyLearningPatterns:  &st.Patterns,
		dal.KeyDynamicCategories: &st.Dynamic,
		dal.KeyCategoryStats:     &st.CategoryStats,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for key, target := range targets {
		eg.Go(func() error {
			return s.load(egCtx, chatID, key, target)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("load state of chat %d: %w", chatID, err)
	}

	if st.Words == nil {
		s.log.DebugContext(ctx, "seeding word list", "chat_id", chatID)
		st.Words = seed
	}
	if st.CategoryStats == nil {
		st.CategoryStats = make(map[string]dal.CategoryStats)
	}
	if st.Dynamic == nil {
		st.Dynamic = []string{}
	}
	return st, nil
}

func (s *Store) load(ctx context.Context, chatID int64, key string, target any) error {
	value, err := s.repo.Load(ctx, chatID, key)
	if errors.Is(err, dal.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err = json.Unmarshal([]byte(value), target); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Save writes every key of the state in one transaction, always overwriting whole values.
func (s *Store) Save(ctx context.Context, st *State) error {
	values := map[string]any{
		dal.KeyWords:             st.Words,
		dal.KeyStats:             st.Stats,
		dal.KeySettings:          st.Settings,
		dal.KeyLearningPatterns:  st.Patterns,
		dal.KeyDynamicCategories: st.Dynamic,
		dal.KeyCategoryStats:     st.CategoryStats,
	}

	encoded := make(map[string]string, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		encoded[key] = string(data)
	}

	err := s.repo.Transact(ctx, func(r dal.Repository) error {
		for _, key := range dal.StateKeys() {
			if err := r.Save(ctx, st.ChatID, key, encoded[key]); err != nil {
				return fmt.Errorf("save %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save state of chat %d: %w", st.ChatID, err)
	}
	return nil
}

// Reset removes everything stored for the chat and persists a freshly seeded state.
func (s *Store) Reset(ctx context.Context, chatID int64) (*State, error) {
	st := s.defaultState(chatID)
	err := s.repo.Transact(ctx, func(r dal.Repository) error {
		return r.Clear(ctx, chatID)
	})
	if err != nil {
		return nil, fmt.Errorf("clear state of chat %d: %w", chatID, err)
	}
	if err = s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ChatIDs lists chats that have any persisted state.
func (s *Store) ChatIDs(ctx context.Context) ([]int64, error) {
	res, err := s.repo.ChatIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return res, nil
}

func (s *Store) defaultState(chatID int64) *State {
	return &State{
		ChatID:        chatID,
		Words:         s.Seed(),
		Settings:      dal.DefaultSettings(),
		Patterns:      dal.NewLearningPatterns(),
		Dynamic:       []string{},
		CategoryStats: make(map[string]dal.CategoryStats),
	}
}

// Seed returns the starter words of a new chat.
func (s *Store) Seed() []dal.Entry {
	pairs := [][2]string{{"dom", "house"}, {"kot", "cat"}, {"woda", "water"}}
	res := make([]dal.Entry, 0, len(pairs))
	for _, p := range pairs {
		res = append(res, dal.Entry{
			ID:         s.newID(),
			SourceText: p[0],
			TargetText: p[1],
			Status:     dal.StatusNew,
		})
	}
	return res
}
