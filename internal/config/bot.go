package config

import (
	"context"
	"fmt"
	"time"
)

type (
	Schedule struct {
		ReplenishInterval time.Duration `envconfig:"REPLENISH_INTERVAL" default:"1h"`
		ReminderInterval  time.Duration `envconfig:"REMINDER_INTERVAL" default:"3h"`
		HourFrom          int           `envconfig:"HOUR_FROM" default:"9"`
		HourTo            int           `envconfig:"HOUR_TO" default:"21"`
		Location          string        `envconfig:"LOCATION" default:"Europe/Warsaw"`
	}

	Bot struct {
		Dev      bool `envconfig:"DEV" default:"false"`
		DB       DB
		Telegram Telegram
		Providers
		Schedule Schedule
	}
)

func (s Schedule) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	return loc, nil
}

func (s Schedule) MustTimeLocation() *time.Location {
	loc, err := s.TimeLocation()
	if err != nil {
		panic(fmt.Sprintf("failed to load location %s: %v", s.Location, err))
	}
	return loc
}

func GetBot(ctx context.Context) (*Bot, error) {
	res := &Bot{}
	if err := process("BOT", res); err != nil {
		return nil, err
	}

	if !res.Dev {
		if err := setBotProdConfig(ctx, res); err != nil {
			return nil, fmt.Errorf("set bot prod config: %w", err)
		}
	}

	if err := validateBot(res); err != nil {
		return nil, err
	}
	return res, nil
}

func validateBot(conf *Bot) error {
	errs := make([]string, 0, 10) //nolint:mnd // 10 is a reasonable default value
	if conf.DB.Path == "" {
		errs = append(errs, "db path is required")
	}
	if conf.Telegram.Token == "" {
		errs = append(errs, "telegram token is required")
	}
	if len(conf.Telegram.AllowedChatIDs) == 0 {
		errs = append(errs, "allowed chat ids are required")
	}
	if conf.Schedule.ReplenishInterval <= 0 {
		errs = append(errs, "replenish interval is required")
	}
	if conf.Schedule.ReminderInterval <= 0 {
		errs = append(errs, "reminder interval is required")
	}
	if conf.Schedule.HourFrom < 0 || conf.Schedule.HourFrom > 23 {
		errs = append(errs, fmt.Sprintf("hour from %d must be in range 0-23", conf.Schedule.HourFrom))
	}
	if conf.Schedule.HourTo < 0 || conf.Schedule.HourTo > 23 {
		errs = append(errs, fmt.Sprintf("hour to %d must be in range 0-23", conf.Schedule.HourTo))
	}
	if conf.Schedule.HourFrom >= conf.Schedule.HourTo {
		errs = append(errs, fmt.Sprintf("hour from %d must be less than hour to %d", conf.Schedule.HourFrom, conf.Schedule.HourTo))
	}
	if _, err := conf.Schedule.TimeLocation(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid timezone: %s", err))
	}
	return invalid(errs)
}

func setBotProdConfig(ctx context.Context, target *Bot) error {
	parameters, err := FetchAWSParams(ctx,
		ssmPrefix+"telegram-token",
		ssmPrefix+"allowed-chat-ids",
		ssmPrefix+"llm-api-key",
	)
	if err != nil {
		return fmt.Errorf("get parameters: %w", err)
	}

	for name, value := range parameters {
		switch name {
		case ssmPrefix + "telegram-token":
			target.Telegram.Token = value
		case ssmPrefix + "allowed-chat-ids":
			target.Telegram.AllowedChatIDs, err = parseChatIDs(value)
			if err != nil {
				return err
			}
		case ssmPrefix + "llm-api-key":
			target.LLM.APIKey = value
		}
	}

	return nil
}
