package config

import (
	"context"
	"fmt"
)

type (
	BuildInfo struct {
		Version   string
		BuildTime string
	}

	API struct {
		Dev       bool `envconfig:"DEV" default:"false"`
		DB        DB
		HTTP      HTTP
		Telegram  Telegram
		Server    Server
		Providers
		BuildInfo BuildInfo `ignored:"true"`
	}
)

func NewAPI(ctx context.Context) (*API, error) {
	res := &API{}
	if err := process("API", res); err != nil {
		return nil, err
	}

	if !res.Dev {
		if err := setAPIProdConfig(ctx, res); err != nil {
			return nil, fmt.Errorf("set api prod config: %w", err)
		}
	}

	if err := validateAPI(res); err != nil {
		return nil, err
	}
	return res, nil
}

func validateAPI(conf *API) error {
	errs := make([]string, 0, 5) //nolint:mnd // number of validated fields
	if conf.DB.Path == "" {
		errs = append(errs, "db path is required")
	}
	if conf.Telegram.Token == "" {
		errs = append(errs, "telegram token is required")
	}
	if conf.HTTP.JWT.Secret == "" {
		errs = append(errs, "jwt secret is required")
	}
	if conf.HTTP.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("rate limit %v must be positive", conf.HTTP.RateLimit))
	}
	if len(conf.Telegram.AllowedChatIDs) == 0 {
		errs = append(errs, "allowed chat ids are required")
	}
	return invalid(errs)
}

func setAPIProdConfig(ctx context.Context, target *API) error {
	parameters, err := FetchAWSParams(ctx,
		ssmPrefix+"telegram-token",
		ssmPrefix+"jwt-secret",
		ssmPrefix+"llm-api-key",
	)
	if err != nil {
		return fmt.Errorf("get parameters: %w", err)
	}

	target.Telegram.Token = parameters[ssmPrefix+"telegram-token"]
	target.HTTP.JWT.Secret = parameters[ssmPrefix+"jwt-secret"]
	target.LLM.APIKey = parameters[ssmPrefix+"llm-api-key"]
	return nil
}
