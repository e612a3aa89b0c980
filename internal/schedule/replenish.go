package schedule

import (
	"context"
	"log/slog"
	"time"
)

type Replenisher interface {
	Replenish(ctx context.Context, chatID int64)
	Wait()
}

// StartReplenishSchedule asks for background replenishment of every chat each interval and waits for
// the started replenishments before it returns.
func StartReplenishSchedule(ctx context.Context, chatIDs []int64, interval time.Duration, r Replenisher, log *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "panic", "error", rec)
		}
	}()

	log.InfoContext(ctx, "replenish schedule started")
	defer log.InfoContext(ctx, "replenish schedule stopped")
	defer r.Wait()

	runIn := time.After(time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		case <-runIn:
			runIn = time.After(interval)

			log.DebugContext(ctx, "replenish execution started")
			replenishAll(ctx, chatIDs, r)
			log.DebugContext(ctx, "replenish execution finished")
		}
	}
}

func replenishAll(ctx context.Context, chatIDs []int64, r Replenisher) {
	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			return
		}
		r.Replenish(ctx, chatID)
	}
}
