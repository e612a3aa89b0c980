// Package free generates vocabulary without API keys: template headwords translated by public services.
package free

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
)

const (
	DefaultMyMemoryURL = "https://api.mymemory.translated.net"
	DefaultTimeout     = 10 * time.Second

	translateConcurrency = 3
)

var (
	DefaultLibreTranslateURLs = []string{ //nolint:gochecknoglobals // public instances
		"https://translate.argosopentech.com",
		"https://translate.terraprint.co",
	}

	errNoTranslation = errors.New("no translation")
)

type (
	Config struct {
		MyMemoryURL        string
		LibreTranslateURLs []string
		Timeout            time.Duration
	}

	Client struct {
		myMemoryURL string
		libreURLs   []string
		client      *http.Client
		log         *slog.Logger
	}

	myMemoryResponse struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}

	libreRequest struct {
		Q      string `json:"q"`
		Source string `json:"source"`
		Target string `json:"target"`
		Format string `json:"format"`
	}

	libreResponse struct {
		TranslatedText string `json:"translatedText"`
	}
)

func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.MyMemoryURL == "" {
		cfg.MyMemoryURL = DefaultMyMemoryURL
	}
	if cfg.LibreTranslateURLs == nil {
		cfg.LibreTranslateURLs = DefaultLibreTranslateURLs
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		myMemoryURL: strings.TrimRight(cfg.MyMemoryURL, "/"),
		libreURLs:   cfg.LibreTranslateURLs,
		client:      &http.Client{Timeout: cfg.Timeout},
		log:         log,
	}
}

// Generate translates up to req.Count template headwords for the category to Polish. Headwords
// already in req.Known are never sent out. Words no service could translate are skipped, so fewer
// pairs than requested may come back.
func (c *Client) Generate(ctx context.Context, req generator.Request) ([]generator.Pair, error) {
	candidates := unknownTemplateWords(req.Category, req.Level, req.Known, req.Count)
	if len(candidates) == 0 {
		c.log.DebugContext(ctx, "every template word is already known", "category", req.Category, "level", req.Level)
		return []generator.Pair{}, nil
	}
	translated := make([]generator.Pair, len(candidates))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(translateConcurrency)
	for i, english := range candidates {
		eg.Go(func() error {
			polish, err := c.Translate(ctx, english)
			if err != nil {
				c.log.DebugContext(ctx, "failed to translate template word", "word", english, "error", err)
				return nil
			}
			translated[i] = generator.Pair{Source: polish, Target: english, Category: req.Category}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("translate template words: %w", err)
	}

	res := make([]generator.Pair, 0, len(translated))
	for _, p := range translated {
		if p.Source != "" {
			res = append(res, p)
		}
	}
	if len(res) < req.Count {
		c.log.WarnContext(ctx, "translated fewer words than requested", "requested", req.Count, "translated", len(res))
	}
	return res, nil
}

// Scope names the template list serving category at level.
func (c *Client) Scope(category, level string) string {
	_, scope := templateWords(category, level)
	return scope
}

// Translate returns the Polish translation of an English word, trying MyMemory first and then
// every LibreTranslate server in order.
func (c *Client) Translate(ctx context.Context, english string) (string, error) {
	res, err := c.myMemory(ctx, english)
	if err == nil {
		return res, nil
	}
	c.log.DebugContext(ctx, "mymemory translation failed", "word", english, "error", err)

	for _, server := range c.libreURLs {
		res, err = c.libreTranslate(ctx, server, english)
		if err == nil {
			return res, nil
		}
		c.log.DebugContext(ctx, "libretranslate translation failed", "server", server, "word", english, "error", err)
	}

	return "", fmt.Errorf("translate %q: %w", english, errNoTranslation)
}

func (c *Client) myMemory(ctx context.Context, english string) (string, error) {
	query := url.Values{}
	query.Set("q", english)
	query.Set("langpair", "en|pl")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.myMemoryURL+"/get?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var body myMemoryResponse
	if err = c.do(req, &body); err != nil {
		return "", err
	}
	if body.ResponseData.TranslatedText == "" {
		return "", errNoTranslation
	}
	return body.ResponseData.TranslatedText, nil
}

func (c *Client) libreTranslate(ctx context.Context, server, english string) (string, error) {
	marshal, err := json.Marshal(libreRequest{Q: english, Source: "en", Target: "pl", Format: "text"})
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/translate", bytes.NewReader(marshal))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body libreResponse
	if err = c.do(req, &body); err != nil {
		return "", err
	}
	if body.TranslatedText == "" {
		return "", errNoTranslation
	}
	return body.TranslatedText, nil
}

func (c *Client) do(req *http.Request, target any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 { //nolint:mnd // non-2xx
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err = json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
