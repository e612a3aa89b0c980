package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tb "gopkg.in/telebot.v3"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

type callbackData struct {
	Action           string
	TargetIdentifier string
}

func (b *Bot) HandleCallback(c tb.Context) error {
	ctx, cancel := processCtx(generateTimeout)
	defer cancel()

	data, err := parseCallbackData(c.Callback().Data)
	if err != nil {
		b.log.ErrorContext(ctx, "failed to parse callback data", "error", err)
		return c.RespondText(somethingWentWrongMsg)
	}

	switch data.Action {
	case callbackAuthConfirm:
		return b.handleAuthConfirmCallback(ctx, c, data)
	case callbackAuthDecline:
		return b.handleAuthDeclineCallback(ctx, c, data)
	case callbackStudy:
		if err = b.startSession(ctx, c); err != nil {
			b.log.ErrorContext(ctx, "failed to start session", "error", err)
			return c.RespondText(somethingWentWrongMsg)
		}
		return c.Delete()
	}

	switch data.Action {
	case callbackSeeTranslation:
		step, ok := b.cache.Get(data.TargetIdentifier)
		if !ok {
			return b.respondExpired(ctx, c, data)
		}
		err = b.handleSeeTranslationCallback(ctx, c, data.TargetIdentifier, step)
	case callbackCorrect, callbackIncorrect:
		// a step is answered once, repeated taps find it gone
		step, ok := b.cache.Take(data.TargetIdentifier)
		if !ok {
			return b.respondExpired(ctx, c, data)
		}
		err = b.handleAnswerCallback(ctx, c, data.TargetIdentifier, step, data.Action == callbackCorrect)
	default:
		b.log.WarnContext(ctx, "unknown callback action", "action", data.Action)
		return c.RespondText(somethingWentWrongMsg)
	}

	if err != nil {
		b.log.ErrorContext(ctx, "failed to process callback", "error", err)
		return c.RespondText(somethingWentWrongMsg)
	}

	return c.Delete()
}

func (b *Bot) respondExpired(ctx context.Context, c tb.Context, data callbackData) error {
	b.log.WarnContext(ctx, "callback data not found", "data", data)
	return c.RespondText("too much time passed")
}

func (b *Bot) handleAuthConfirmCallback(ctx context.Context, c tb.Context, data callbackData) error {
	if err := b.repo.ConfirmAuthConfirmation(ctx, c.Chat().ID, data.TargetIdentifier); err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return c.RespondText("the login request has expired")
		}
		b.log.ErrorContext(ctx, "failed to confirm auth", "error", err)
		return c.RespondText(somethingWentWrongMsg)
	}
	return c.Delete()
}

func (b *Bot) handleAuthDeclineCallback(ctx context.Context, c tb.Context, data callbackData) error {
	if err := b.repo.DeleteAuthConfirmation(ctx, c.Chat().ID, data.TargetIdentifier); err != nil {
		b.log.ErrorContext(ctx, "failed to decline auth", "error", err)
		return c.RespondText(somethingWentWrongMsg)
	}
	return c.Delete()
}

func (b *Bot) handleSeeTranslationCallback(ctx context.Context, c tb.Context, cacheID string, step sessionStep) error {
	e, err := b.trainer.Word(ctx, c.Chat().ID, step.EntryID)
	if err != nil {
		return fmt.Errorf("get word: %w", err)
	}

	msg := bold(e.SourceText) + escapeMarkdown(" - ") + bold(e.TargetText)
	if len(e.Examples) > 0 {
		msg += "\n_" + escapeMarkdown(e.Examples[0].Text) + "_"
	}
	return c.Send(msg, tb.ModeMarkdownV2, tb.Silent, answerMarkup(cacheID))
}

func (b *Bot) handleAnswerCallback(ctx context.Context, c tb.Context, cacheID string, step sessionStep, correct bool) error {
	chatID := c.Chat().ID
	res, err := b.trainer.Answer(ctx, chatID, step.EntryID, correct)
	if err != nil {
		if errors.Is(err, trainer.ErrEntryNotFound) {
			return c.Send("the word was removed")
		}
		b.cache.Set(cacheID, step, cacheTTL)
		return fmt.Errorf("record answer: %w", err)
	}

	if res.Outcome.Difficult {
		if err = c.Send(fmt.Sprintf("%q is marked as a difficult word", res.Entry.TargetText), tb.Silent); err != nil {
			return fmt.Errorf("send difficult word notice: %w", err)
		}
	}

	for len(step.Queue) > 0 {
		next := sessionStep{EntryID: step.Queue[0], Queue: step.Queue[1:]}
		err = b.sendWord(ctx, c, chatID, next)
		if !errors.Is(err, trainer.ErrEntryNotFound) {
			return err
		}
		step = next
	}

	stats, err := b.trainer.Stats(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	return c.Send(fmt.Sprintf("Session finished. Success rate: %d%%, due: %d", stats.SuccessRate, stats.DueWords))
}

func parseCallbackData(val string) (callbackData, error) {
	val = strings.TrimSpace(val)
	action, target, _ := strings.Cut(val, ":")
	if action == "" || strings.Contains(target, ":") {
		return callbackData{}, fmt.Errorf("invalid callback data: %s", val)
	}
	return callbackData{
		Action:           action,
		TargetIdentifier: target,
	}, nil
}
