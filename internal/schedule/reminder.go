package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	publishTimeout = 1 * time.Minute
	countLimit     = 4
)

type (
	DueCounter interface {
		DueCount(ctx context.Context, chatID int64) (int, error)
	}

	Publisher interface {
		SendDueReminder(ctx context.Context, chatID int64, due int) error
	}

	// Window limits reminders to hours [From, To] in Location.
	Window struct {
		Location *time.Location
		From     int
		To       int
	}
)

func (w Window) Contains(t time.Time) bool {
	hour := t.In(w.Location).Hour()
	return hour >= w.From && hour <= w.To
}

// StartReminderSchedule tells every chat with due words how many of them wait for review.
func StartReminderSchedule(ctx context.Context, chatIDs []int64, interval time.Duration, window Window, c DueCounter, p Publisher, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "panic", "error", r)
		}
	}()

	log.InfoContext(ctx, "reminder schedule started", "current_time", time.Now().In(window.Location).Format(time.RFC3339))
	defer log.InfoContext(ctx, "reminder schedule stopped")
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if !window.Contains(time.Now()) {
				continue
			}
		}

		if err := remind(ctx, chatIDs, c, p, log); err != nil {
			log.ErrorContext(ctx, "failed to send reminders", "error", err)
		}
	}
}

func remind(ctx context.Context, chatIDs []int64, c DueCounter, p Publisher, log *slog.Logger) error {
	due := make([]int, len(chatIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(countLimit)
	for i, chatID := range chatIDs {
		eg.Go(func() error {
			n, err := c.DueCount(egCtx, chatID)
			if err != nil {
				return fmt.Errorf("count due words of chat %d: %w", chatID, err)
			}
			due[i] = n
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, chatID := range chatIDs {
		if due[i] == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err := p.SendDueReminder(ctx, chatID, due[i]); err != nil {
			log.ErrorContext(ctx, "failed to send due reminder", "error", err, "chat_id", chatID)
		}
		cancel()
	}
	return nil
}
