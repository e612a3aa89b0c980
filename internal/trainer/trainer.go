// Package trainer owns the application state of every chat and runs all operations on it.
// Each operation loads the chat state, changes it and persists it while holding the chat lock.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/category"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/srs"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/store"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
)

const resultsBuffer = 16

var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrDuplicateEntry = errors.New("entry already exists")
	ErrInvalidEntry   = errors.New("source and target text are required")
	ErrNoImages       = errors.New("image provider is not configured")
)

type (
	// LLM is a paid provider able to generate words and advise on the other steps.
	LLM interface {
		generator.Provider
		generator.Checker
		category.Minter
		srs.IntervalAdvisor
	}

	ImageResolver interface {
		ImageURL(ctx context.Context, target, source string) (string, error)
	}

	Dependencies struct {
		Store     *store.Store
		Generator *generator.Generator
		Builder   *study.Builder
		Free      generator.Provider
		// LLM is optional; chats selecting the openai provider fall back to Free without it.
		LLM LLM
		// Images is optional.
		Images ImageResolver
	}

	Trainer struct {
		store     *store.Store
		generator *generator.Generator
		builder   *study.Builder
		free      generator.Provider
		llm       LLM
		images    ImageResolver
		plain     *srs.Scheduler
		advised   *srs.Scheduler

		locks   map[int64]*sync.Mutex
		locksMx sync.Mutex

		results chan ReplenishResult
		wg      sync.WaitGroup

		now func() time.Time
		log *slog.Logger
	}
)

func New(deps Dependencies, log *slog.Logger) *Trainer {
	res := &Trainer{
		store:     deps.Store,
		generator: deps.Generator,
		builder:   deps.Builder,
		free:      deps.Free,
		llm:       deps.LLM,
		images:    deps.Images,
		plain:     srs.NewScheduler(nil, log),

		locks:   make(map[int64]*sync.Mutex),
		results: make(chan ReplenishResult, resultsBuffer),

		now: time.Now,
		log: log,
	}
	if deps.LLM != nil {
		res.advised = srs.NewScheduler(deps.LLM, log)
	}
	return res
}

func (t *Trainer) lock(chatID int64) func() {
	t.locksMx.Lock()
	l, ok := t.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[chatID] = l
	}
	t.locksMx.Unlock()

	l.Lock()
	return l.Unlock
}

// update runs fn on the loaded state and persists the result with recomputed aggregate stats.
func (t *Trainer) update(ctx context.Context, chatID int64, fn func(st *store.State) error) error {
	defer t.lock(chatID)()

	st, err := t.store.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err = fn(st); err != nil {
		return err
	}

	st.Stats = progress.ComputeStats(st.Words, t.now())
	if err = t.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// view runs fn on the loaded state without persisting it.
func (t *Trainer) view(ctx context.Context, chatID int64, fn func(st *store.State) error) error {
	defer t.lock(chatID)()

	st, err := t.store.Load(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	return fn(st)
}

func (t *Trainer) paid(settings dal.Settings) bool {
	return settings.AIProvider == dal.ProviderOpenAI && t.llm != nil
}

func (t *Trainer) scheduler(settings dal.Settings) *srs.Scheduler {
	if t.paid(settings) {
		return t.advised
	}
	return t.plain
}

func (t *Trainer) generationInput(ctx context.Context, st *store.State, cs *category.State, count int) generator.Input {
	in := generator.Input{
		State:    cs,
		Count:    count,
		Provider: t.free,
		Now:      t.now(),
	}
	if st.Settings.AIProvider == dal.ProviderOpenAI && t.llm == nil {
		t.log.WarnContext(ctx, "paid provider selected but not configured, using free provider", "chat_id", st.ChatID)
	}
	if t.paid(st.Settings) {
		in.Provider = t.llm
		in.Minter = t.llm
		if st.Settings.EnableAISelfCheck {
			in.Checker = t.llm
		}
	}
	return in
}

func indexOf(words []dal.Entry, id string) int {
	for i, w := range words {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// ChatIDs lists chats that have persisted state.
func (t *Trainer) ChatIDs(ctx context.Context) ([]int64, error) {
	return t.store.ChatIDs(ctx)
}

// Wait blocks until background replenishments finish.
func (t *Trainer) Wait() {
	t.wg.Wait()
}
