package telegram

import (
	"errors"
	"fmt"
	"log/slog"

	tb "gopkg.in/telebot.v3"
)

var ErrChatNotAllowed = errors.New("chat is not allowed")

func Recover(log *slog.Logger) tb.MiddlewareFunc {
	return func(next tb.HandlerFunc) tb.HandlerFunc {
		return func(c tb.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic occurred", "panic", r)
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(c)
		}
	}
}

func LogErrors(log *slog.Logger) tb.MiddlewareFunc {
	return func(next tb.HandlerFunc) tb.HandlerFunc {
		return func(c tb.Context) error {
			err := next(c)
			if err != nil {
				log.Error("failed to process message", "chat_id", chatID(c), "error", err)
			}
			return err
		}
	}
}

func AllowedChats(ids []int64) tb.MiddlewareFunc {
	idsMap := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idsMap[id] = struct{}{}
	}
	return func(next tb.HandlerFunc) tb.HandlerFunc {
		return func(c tb.Context) error {
			id := chatID(c)
			if _, ok := idsMap[id]; !ok {
				return fmt.Errorf("%w: %d", ErrChatNotAllowed, id)
			}

			return next(c)
		}
	}
}

func chatID(c tb.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}
