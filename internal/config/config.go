package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultAWSRegion = "eu-central-1"

	ssmPrefix = "/vocabulary-trainer/prod/"
)

type (
	DB struct {
		Path string `envconfig:"DB_PATH" default:"vocabulary.db"`
	}

	CORS struct {
		AllowOrigins []string `envconfig:"ALLOW_ORIGINS" required:"true"`
	}

	JWT struct {
		Issuer   string   `envconfig:"ISSUER" default:"vocabulary-trainer-api"`
		Audience []string `envconfig:"AUDIENCE" required:"true"`
		Secret   string   `envconfig:"SECRET"`
	}

	Cookie struct {
		Path            string        `envconfig:"CPATH" default:"/"` // not using PATH here because it may conflict with os.Path
		Domain          string        `envconfig:"DOMAIN" required:"true"`
		AuthExpiresIn   time.Duration `envconfig:"AUTH_EXPIRES_IN" default:"15m"`
		AccessExpiresIn time.Duration `envconfig:"ACCESS_EXPIRES_IN" default:"24h"`
	}

	HTTP struct {
		ProcessTimeout time.Duration `envconfig:"PROCESS_TIMEOUT" default:"60s"`
		RateLimit      float64       `envconfig:"RATE_LIMIT" default:"25"`
		CORS           CORS
		Cookie         Cookie
		JWT            JWT
	}

	Server struct {
		ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
		Addr              string        `envconfig:"ADDR" default:":8080"`
	}

	Telegram struct {
		Token          string  `envconfig:"TOKEN"`
		AllowedChatIDs []int64 `envconfig:"ALLOWED_CHAT_IDS"`
	}

	// LLM configures the optional paid provider; it is disabled while APIKey is empty.
	LLM struct {
		BaseURL    string        `envconfig:"BASE_URL" default:"https://api.openai.com/v1"`
		APIKey     string        `envconfig:"API_KEY"`
		Model      string        `envconfig:"MODEL" default:"gpt-4o-mini"`
		MaxRetries int           `envconfig:"MAX_RETRIES" default:"3"`
		Timeout    time.Duration `envconfig:"TIMEOUT" default:"30s"`
	}

	Free struct {
		MyMemoryURL        string        `envconfig:"MYMEMORY_URL" default:"https://api.mymemory.translated.net"`
		LibreTranslateURLs []string      `envconfig:"LIBRETRANSLATE_URLS" default:"https://libretranslate.de,https://translate.argosopentech.com"`
		Timeout            time.Duration `envconfig:"TIMEOUT" default:"10s"`
	}

	Images struct {
		PollinationsURL string        `envconfig:"POLLINATIONS_URL" default:"https://image.pollinations.ai"`
		PicsumURL       string        `envconfig:"PICSUM_URL" default:"https://picsum.photos"`
		ProbeTimeout    time.Duration `envconfig:"PROBE_TIMEOUT" default:"8s"`
		CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	}

	// Providers configures word generation, review advice and illustrations.
	Providers struct {
		LLM    LLM
		Free   Free
		Images Images
	}
)

// process loads an optional .env file and fills target from the environment.
func process(prefix string, target any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(prefix, target); err != nil {
		return fmt.Errorf("parse %s environment: %w", strings.ToLower(prefix), err)
	}
	return nil
}

func invalid(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(errs, ", "))
}

func parseChatIDs(chatIDsStr string) ([]int64, error) {
	if chatIDsStr == "" {
		return nil, nil
	}

	chatIDStrings := strings.Split(chatIDsStr, ",")
	chatIDs := make([]int64, 0, len(chatIDStrings))
	for _, chatIDString := range chatIDStrings {
		chatID, err := strconv.ParseInt(strings.TrimSpace(chatIDString), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chat IDs: invalid chat ID %s: %w", chatIDString, err)
		}
		chatIDs = append(chatIDs, chatID)
	}

	return chatIDs, nil
}
