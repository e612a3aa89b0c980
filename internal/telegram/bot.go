package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"text/template"
	"time"

	tb "gopkg.in/telebot.v3"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
	"github.com/Roma7-7-7/vocabulary-trainer/pkg/cache"
)

const (
	commandStart    = "/start"
	commandAdd      = "/add"
	commandStudy    = "/study"
	commandStats    = "/stats"
	commandGenerate = "/generate"
	commandProfile  = "/profile"

	callbackSeeTranslation = "callback#see_translation"
	callbackCorrect        = "callback#correct"
	callbackIncorrect      = "callback#incorrect"
	callbackStudy          = "callback#study"
	callbackAuthConfirm    = "callback#auth#confirm"
	callbackAuthDecline    = "callback#auth#decline"

	somethingWentWrongMsg = "something went wrong"

	defaultGenerateCount = 5
	maxGenerateCount     = 20

	cacheTTL        = 24 * time.Hour
	processTimeout  = 10 * time.Second
	generateTimeout = 2 * time.Minute
)

var profileTemplate = template.Must(template.New("profile").
	Parse(`Words: {{.TotalWords}} (learned {{.LearnedWords}})
Average accuracy: {{.AverageAccuracy}}%
Learning speed: {{.LearningSpeed}}
{{- if .WeakAreas}}
Weak areas:
{{- range .WeakAreas}}
- {{.}}
{{- end}}
{{- end}}
{{- if .DifficultWords}}
Difficult words:
{{- range .DifficultWords}}
- {{.}}
{{- end}}
{{- end}}
`))

type (
	Trainer interface {
		AddWord(ctx context.Context, chatID int64, source, target, category string) (dal.Entry, error)
		Word(ctx context.Context, chatID int64, id string) (dal.Entry, error)
		PrepareSession(ctx context.Context, chatID int64) ([]dal.Entry, error)
		Answer(ctx context.Context, chatID int64, id string, correct bool) (trainer.AnswerResult, error)
		Stats(ctx context.Context, chatID int64) (dal.Stats, error)
		Generate(ctx context.Context, chatID int64, count int) ([]dal.Entry, error)
		Profile(ctx context.Context, chatID int64) (progress.Profile, error)
	}

	Sender interface {
		Send(to tb.Recipient, what interface{}, opts ...interface{}) (*tb.Message, error)
	}

	// sessionStep is the word a message asks about and the words left in the session after it.
	sessionStep struct {
		EntryID string
		Queue   []string
	}

	Bot struct {
		bot     *tb.Bot
		sender  Sender
		trainer Trainer
		repo    dal.AuthConfirmationRepository
		cache   *cache.InMemory[sessionStep]

		middlewares []tb.MiddlewareFunc

		seq atomic.Int64
		log *slog.Logger
	}
)

func NewBot(token string, t Trainer, repo dal.AuthConfirmationRepository, log *slog.Logger, middlewares ...tb.MiddlewareFunc) (*Bot, error) {
	b, err := tb.NewBot(tb.Settings{
		Token: token,
		Poller: &tb.LongPoller{
			Timeout: 1 * time.Minute,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	res := newBot(b, t, repo, log, middlewares...)
	res.bot = b
	return res, nil
}

func newBot(sender Sender, t Trainer, repo dal.AuthConfirmationRepository, log *slog.Logger, middlewares ...tb.MiddlewareFunc) *Bot {
	res := &Bot{
		sender:      sender,
		trainer:     t,
		repo:        repo,
		cache:       cache.NewInMemory[sessionStep](),
		middlewares: middlewares,
		log:         log,
	}
	res.seq.Store(time.Now().UnixNano())
	return res
}

// Start registers the handlers and polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.bot.Handle(commandStart, b.HandleStart, b.middlewares...)
	b.bot.Handle(commandAdd, b.HandleAdd, b.middlewares...)
	b.bot.Handle(commandStudy, b.HandleStudy, b.middlewares...)
	b.bot.Handle(commandStats, b.HandleStats, b.middlewares...)
	b.bot.Handle(commandGenerate, b.HandleGenerate, b.middlewares...)
	b.bot.Handle(commandProfile, b.HandleProfile, b.middlewares...)
	b.bot.Handle(tb.OnCallback, b.HandleCallback, b.middlewares...)

	b.cache.StartCleanup(ctx, time.Hour)
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()

	b.bot.Start()
}

func (b *Bot) HandleStart(c tb.Context) error {
	return c.Reply(`Cześć! I help you learn Polish words.
/add słowo: word - add a word
/study - review due words
/generate [n] - add n new words
/stats - statistics
/profile - learning profile`)
}

func (b *Bot) HandleAdd(c tb.Context) error {
	ctx, cancel := processCtx(processTimeout)
	defer cancel()

	source, target, ok := strings.Cut(c.Message().Payload, ":")
	if !ok {
		b.log.DebugContext(ctx, "wrong message format", "message", c.Message().Text)
		return c.Reply("wrong message format, it should be like: /add słowo: word")
	}

	e, err := b.trainer.AddWord(ctx, c.Chat().ID, source, target, "")
	switch {
	case errors.Is(err, trainer.ErrInvalidEntry):
		return c.Reply("both the word and its translation are required")
	case errors.Is(err, trainer.ErrDuplicateEntry):
		return c.Reply("the word is already in your list")
	case err != nil:
		b.log.ErrorContext(ctx, "failed to add word", "error", err)
		return c.Reply("failed to add word")
	}

	return c.Reply(fmt.Sprintf("added: %s - %s", e.SourceText, e.TargetText))
}

func (b *Bot) HandleStudy(c tb.Context) error {
	ctx, cancel := processCtx(generateTimeout)
	defer cancel()

	return b.startSession(ctx, c)
}

func (b *Bot) startSession(ctx context.Context, c tb.Context) error {
	chatID := c.Chat().ID
	items, err := b.trainer.PrepareSession(ctx, chatID)
	if err == nil && len(items) == 0 {
		err = study.ErrEmptyStudySet
	}
	if err != nil {
		if errors.Is(err, study.ErrEmptyStudySet) {
			return c.Send("nothing to study right now")
		}
		b.log.ErrorContext(ctx, "failed to prepare session", "error", err)
		return c.Send("failed to prepare session")
	}

	ids := make([]string, 0, len(items))
	for _, e := range items {
		ids = append(ids, e.ID)
	}
	return b.sendWord(ctx, c, chatID, sessionStep{EntryID: ids[0], Queue: ids[1:]})
}

func (b *Bot) sendWord(ctx context.Context, c tb.Context, chatID int64, step sessionStep) error {
	e, err := b.trainer.Word(ctx, chatID, step.EntryID)
	if err != nil {
		return fmt.Errorf("get word: %w", err)
	}

	cacheID := b.callbackCacheID(chatID)
	b.cache.Set(cacheID, step, cacheTTL)

	msg := bold(e.SourceText)
	if len(step.Queue) > 0 {
		msg += escapeMarkdown(fmt.Sprintf("\n%d more to go", len(step.Queue)))
	}
	return c.Send(msg, tb.ModeMarkdownV2, seeTranslationMarkup(cacheID))
}

func (b *Bot) HandleStats(c tb.Context) error {
	ctx, cancel := processCtx(processTimeout)
	defer cancel()

	stats, err := b.trainer.Stats(ctx, c.Chat().ID)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to get stats", "error", err)
		return c.Reply("failed to get stats")
	}

	return c.Reply(fmt.Sprintf("Total: %d\nLearned: %d\nDue: %d\nSuccess rate: %d%%\nAnswers: %d/%d",
		stats.TotalWords, stats.LearnedWords, stats.DueWords, stats.SuccessRate, stats.CorrectAttempts, stats.TotalAttempts))
}

func (b *Bot) HandleGenerate(c tb.Context) error {
	ctx, cancel := processCtx(generateTimeout)
	defer cancel()

	count := defaultGenerateCount
	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		n, err := strconv.Atoi(payload)
		if err != nil || n < 1 || n > maxGenerateCount {
			return c.Reply(fmt.Sprintf("count must be a number between 1 and %d", maxGenerateCount))
		}
		count = n
	}

	entries, err := b.trainer.Generate(ctx, c.Chat().ID, count)
	if err != nil {
		if errors.Is(err, generator.ErrParse) {
			return c.Reply("the word provider returned an unreadable reply, try again later")
		}
		b.log.ErrorContext(ctx, "failed to generate words", "error", err)
		return c.Reply("failed to generate words")
	}
	if len(entries) == 0 {
		return c.Reply("no new words found, try again later")
	}

	buff := &strings.Builder{}
	fmt.Fprintf(buff, "added %d words:", len(entries))
	for _, e := range entries {
		fmt.Fprintf(buff, "\n- %s - %s", e.SourceText, e.TargetText)
	}
	return c.Reply(buff.String())
}

func (b *Bot) HandleProfile(c tb.Context) error {
	ctx, cancel := processCtx(processTimeout)
	defer cancel()

	profile, err := b.trainer.Profile(ctx, c.Chat().ID)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to get profile", "error", err)
		return c.Reply("failed to get profile")
	}

	buff := &strings.Builder{}
	if err = profileTemplate.Execute(buff, profile); err != nil {
		b.log.ErrorContext(ctx, "failed to render profile", "error", err)
		return c.Reply("failed to render profile")
	}
	return c.Reply(buff.String())
}

// SendDueReminder tells the chat how many words wait for a review.
func (b *Bot) SendDueReminder(_ context.Context, chatID int64, due int) error {
	msg := fmt.Sprintf("You have %d words to review", due)
	if _, err := b.sender.Send(tb.ChatID(chatID), msg, studyMarkup(), tb.Silent); err != nil {
		return fmt.Errorf("send due reminder: %w", err)
	}
	return nil
}

// NotifyReplenished reports words added in the background until results is closed or ctx is done.
func (b *Bot) NotifyReplenished(ctx context.Context, results <-chan trainer.ReplenishResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			if res.Err != nil || res.Added == 0 {
				continue
			}
			msg := fmt.Sprintf("%d new words were added to reach your daily goal", res.Added)
			if _, err := b.sender.Send(tb.ChatID(res.ChatID), msg, studyMarkup(), tb.Silent); err != nil {
				b.log.ErrorContext(ctx, "failed to notify about new words", "chat_id", res.ChatID, "error", err)
			}
		}
	}
}

func (b *Bot) callbackCacheID(chatID int64) string {
	return fmt.Sprintf("%d#%d", chatID, b.seq.Add(1))
}

func seeTranslationMarkup(cacheID string) *tb.ReplyMarkup {
	return &tb.ReplyMarkup{
		InlineKeyboard: [][]tb.InlineButton{
			{
				{
					Text: "See translation",
					Data: fmt.Sprintf("%s:%s", callbackSeeTranslation, cacheID),
				},
			},
		},
	}
}

func answerMarkup(cacheID string) *tb.ReplyMarkup {
	return &tb.ReplyMarkup{
		InlineKeyboard: [][]tb.InlineButton{
			{
				{
					Text: "✅",
					Data: fmt.Sprintf("%s:%s", callbackCorrect, cacheID),
				},
				{
					Text: "❌",
					Data: fmt.Sprintf("%s:%s", callbackIncorrect, cacheID),
				},
			},
		},
	}
}

func studyMarkup() *tb.ReplyMarkup {
	return &tb.ReplyMarkup{
		InlineKeyboard: [][]tb.InlineButton{
			{
				{
					Text: "Study now",
					Data: callbackStudy,
				},
			},
		},
	}
}

func processCtx(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

const markdownSpecial = "_*[]()~`>#+-=|{}.!\\"

func escapeMarkdown(s string) string {
	res := &strings.Builder{}
	for _, r := range s {
		if strings.ContainsRune(markdownSpecial, r) {
			res.WriteByte('\\')
		}
		res.WriteRune(r)
	}
	return res.String()
}

func bold(s string) string {
	return "*" + escapeMarkdown(strings.TrimSpace(s)) + "*"
}
