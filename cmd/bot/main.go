package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
	dalsql "github.com/Roma7-7-7/vocabulary-trainer/internal/dal/sql"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/schedule"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/telegram"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

var (
	// Version is set via -ldflags at build time
	Version = "dev" //nolint:gochecknoglobals // must be global to be replaced at build time
	// BuildTime is set via -ldflags at build time
	BuildTime = "unknown" //nolint:gochecknoglobals // must be global to be replaced at build time
)

const (
	exitCodeOK int = iota
	exitCodeConfigParse
	exitCodeDBConnect
	exitCodeBotCreate
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	go func() {
		<-sigs
		cancel()
	}()
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	conf, err := config.GetBot(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get config", "error", err) //nolint:sloglint // app logger is not configured yet
		return exitCodeConfigParse
	}

	log := mustLogger(conf.Dev)
	loc := conf.Schedule.MustTimeLocation()

	log.InfoContext(ctx, "starting bot",
		"version", Version,
		"build_time", BuildTime,
		"config", loggableConfig(conf),
		"current_time_in_location", time.Now().In(loc),
	)
	defer log.InfoContext(ctx, "bot is stopped")

	db, err := dalsql.Open(ctx, conf.DB.Path)
	if err != nil {
		log.ErrorContext(ctx, "failed to open database", "error", err)
		return exitCodeDBConnect
	}
	defer db.Close()

	repo := dalsql.NewRepository(ctx, db, log)
	tr := trainer.FromConfig(ctx, conf.Providers, repo, log)

	bot, err := telegram.NewBot(conf.Telegram.Token, tr, repo, log,
		telegram.Recover(log), telegram.LogErrors(log), telegram.AllowedChats(conf.Telegram.AllowedChatIDs))
	if err != nil {
		log.ErrorContext(ctx, "failed to create bot", "error", err)
		return exitCodeBotCreate
	}

	go bot.NotifyReplenished(ctx, tr.Results())
	go schedule.StartReplenishSchedule(ctx, conf.Telegram.AllowedChatIDs, conf.Schedule.ReplenishInterval, tr, log)
	go schedule.StartReminderSchedule(ctx, conf.Telegram.AllowedChatIDs, conf.Schedule.ReminderInterval, schedule.Window{
		Location: loc,
		From:     conf.Schedule.HourFrom,
		To:       conf.Schedule.HourTo,
	}, tr, bot, log)

	bot.Start(ctx)
	tr.Wait()

	return exitCodeOK
}

func mustLogger(dev bool) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

func loggableConfig(conf *config.Bot) map[string]any {
	return map[string]any{
		"dev":              conf.Dev,
		"db-path":          conf.DB.Path,
		"allowed-chat-ids": conf.Telegram.AllowedChatIDs,
		"paid-provider":    conf.LLM.APIKey != "",
		"llm-model":        conf.LLM.Model,
		"schedule": map[string]any{
			"replenish-interval": fmt.Sprintf("%v", conf.Schedule.ReplenishInterval),
			"reminder-interval":  fmt.Sprintf("%v", conf.Schedule.ReminderInterval),
			"hour-from":          conf.Schedule.HourFrom,
			"hour-to":            conf.Schedule.HourTo,
			"location":           conf.Schedule.Location,
		},
	}
}
