package config

import (
	"context"
	"fmt"
	"time"
)

type (
	Google struct {
		APIKey      string `envconfig:"API_KEY"`
		BaseURL     string `envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
		ImagenModel string `envconfig:"IMAGEN_MODEL" default:"imagen-4.0-generate-001"`
		FlashModel  string `envconfig:"FLASH_MODEL" default:"gemini-2.5-flash-image-preview"`
	}

	Proxy struct {
		Dev            bool          `envconfig:"DEV" default:"false"`
		ProcessTimeout time.Duration `envconfig:"PROCESS_TIMEOUT" default:"90s"`
		RateLimit      float64       `envconfig:"RATE_LIMIT" default:"5"`
		CORS           struct {
			AllowOrigins []string `envconfig:"ALLOW_ORIGINS" default:"*"`
		}
		Google Google
		Server Server
	}
)

func NewProxy(ctx context.Context) (*Proxy, error) {
	res := &Proxy{}
	if err := process("PROXY", res); err != nil {
		return nil, err
	}

	// the key is optional: callers may pass their own
	if !res.Dev && res.Google.APIKey == "" {
		parameters, err := FetchAWSParams(ctx, ssmPrefix+"google-api-key")
		if err != nil {
			return nil, fmt.Errorf("set proxy prod config: %w", err)
		}
		res.Google.APIKey = parameters[ssmPrefix+"google-api-key"]
	}

	errs := make([]string, 0, 2) //nolint:mnd // number of validated fields
	if res.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("rate limit %v must be positive", res.RateLimit))
	}
	if res.Google.BaseURL == "" {
		errs = append(errs, "google base url is required")
	}
	if err := invalid(errs); err != nil {
		return nil, err
	}
	return res, nil
}
