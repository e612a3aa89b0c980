// Package image resolves an illustration URL for a word pair from keyless public image services.
package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/progress"
)

const (
	DefaultPollinationsURL = "https://image.pollinations.ai"
	DefaultPicsumURL       = "https://picsum.photos"
	DefaultProbeTimeout    = 8 * time.Second
	DefaultCacheTTL        = 24 * time.Hour

	size = 256
)

var ErrNoImage = errors.New("no image available")

type (
	Config struct {
		PollinationsURL string
		PicsumURL       string
		ProbeTimeout    time.Duration
		CacheTTL        time.Duration
	}

	Cache interface {
		Get(key string) (string, bool)
		Set(key, value string, ttl time.Duration)
	}

	// Waterfall tries Pollinations, then Pollinations with the flux model, then Picsum.
	// The first URL answering with an image wins.
	Waterfall struct {
		pollinationsURL string
		picsumURL       string
		cacheTTL        time.Duration
		client          *http.Client
		cache           Cache
		log             *slog.Logger
	}
)

func NewWaterfall(cfg Config, cache Cache, log *slog.Logger) *Waterfall {
	if cfg.PollinationsURL == "" {
		cfg.PollinationsURL = DefaultPollinationsURL
	}
	if cfg.PicsumURL == "" {
		cfg.PicsumURL = DefaultPicsumURL
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Waterfall{
		pollinationsURL: strings.TrimRight(cfg.PollinationsURL, "/"),
		picsumURL:       strings.TrimRight(cfg.PicsumURL, "/"),
		cacheTTL:        cfg.CacheTTL,
		client:          &http.Client{Timeout: cfg.ProbeTimeout},
		cache:           cache,
		log:             log,
	}
}

func (w *Waterfall) ImageURL(ctx context.Context, target, source string) (string, error) {
	key := target + "|" + source
	if cached, ok := w.cache.Get(key); ok {
		return cached, nil
	}

	for _, candidate := range w.Candidates(target, source) {
		if err := w.probe(ctx, candidate); err != nil {
			w.log.DebugContext(ctx, "image candidate rejected", "url", candidate, "error", err)
			continue
		}
		w.cache.Set(key, candidate, w.cacheTTL)
		return candidate, nil
	}

	return "", fmt.Errorf("image for %q: %w", target, ErrNoImage)
}

// Candidates returns the URLs tried for a word pair, in order.
func (w *Waterfall) Candidates(target, source string) []string {
	prompt := url.PathEscape(Prompt(target, source))
	seed := Seed(target + "|" + source + "|imgv2")
	pollinations := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&seed=%d", w.pollinationsURL, prompt, size, size, seed)

	return []string{
		pollinations + "&nologo=true",
		pollinations + "&model=flux&nologo=true",
		fmt.Sprintf("%s/seed/%d/%d/%d", w.picsumURL, Seed(target+"|"+source+"|unsplash"), size, size),
	}
}

// Prompt disambiguates the English word by the sense of its Polish counterpart.
func Prompt(target, source string) string {
	if source == "" {
		source = target
	}
	return fmt.Sprintf(`%s - the sense of %s that corresponds to the Polish "%s" (%s)`,
		target, target, source, progress.GuessCategory(source))
}

// Seed is the absolute value of the 31-multiplier string hash over UTF-16 code units, wrapped to 32 bits.
func Seed(s string) int64 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = hash*31 + int32(unit) //nolint:mnd // hash multiplier
	}
	res := int64(hash)
	if res < 0 {
		res = -res
	}
	return res
}

func (w *Waterfall) probe(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 { //nolint:mnd // non-2xx
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("unexpected content type: %q", ct)
	}
	return nil
}
