package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 60 * time.Second

	maxUpstreamBody = 10 << 20
)

var ErrNoImage = errors.New("no image returned")

type (
	// UpstreamError carries a non-2xx reply of the image API.
	UpstreamError struct {
		Status int
		Body   string
	}

	Image struct {
		Mime   string `json:"mime,omitempty"`
		Base64 string `json:"base64,omitempty"`
		URL    string `json:"url,omitempty"`
	}

	Client struct {
		baseURL    string
		httpClient *http.Client
		log        *slog.Logger
	}

	generateImageResponse struct {
		GeneratedImages []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
		} `json:"generatedImages"`
	}

	generateContentResponse struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text       string `json:"text"`
					InlineData *struct {
						MimeType string `json:"mimeType"`
						Data     string `json:"data"`
					} `json:"inlineData"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
)

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Status)
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// GenerateImage asks an Imagen model for one square image; config overrides the default generation options.
func (c *Client) GenerateImage(ctx context.Context, apiKey, model, prompt string, config map[string]any) (Image, error) {
	options := map[string]any{
		"numberOfImages":    1,
		"aspectRatio":       "1:1",
		"safetyFilterLevel": "BLOCK_ONLY_HIGH",
		"personGeneration":  "DONT_ALLOW",
	}
	maps.Copy(options, config)

	var res generateImageResponse
	if err := c.post(ctx, apiKey, model, "generateImage", map[string]any{"prompt": prompt, "config": options}, &res); err != nil {
		return Image{}, err
	}
	if len(res.GeneratedImages) == 0 || res.GeneratedImages[0].BytesBase64Encoded == "" {
		return Image{}, fmt.Errorf("imagen: %w", ErrNoImage)
	}
	return Image{Mime: "image/png", Base64: res.GeneratedImages[0].BytesBase64Encoded}, nil
}

// GenerateContent asks a Gemini model for an image. An inline image wins over a link returned as text.
func (c *Client) GenerateContent(ctx context.Context, apiKey, model, prompt string, generationConfig map[string]any) (Image, error) {
	options := map[string]any{"responseMimeType": "application/json"}
	maps.Copy(options, generationConfig)

	body := map[string]any{
		"contents":         []any{map[string]any{"parts": []any{map[string]any{"text": prompt}}}},
		"generationConfig": options,
	}
	var res generateContentResponse
	if err := c.post(ctx, apiKey, model, "generateContent", body, &res); err != nil {
		return Image{}, err
	}
	if len(res.Candidates) == 0 {
		return Image{}, fmt.Errorf("gemini: %w", ErrNoImage)
	}

	parts := res.Candidates[0].Content.Parts
	for _, p := range parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return Image{Mime: mime, Base64: p.InlineData.Data}, nil
		}
	}
	for _, p := range parts {
		if strings.HasPrefix(p.Text, "http") {
			return Image{URL: strings.TrimSpace(p.Text)}, nil
		}
	}
	return Image{}, fmt.Errorf("gemini: %w", ErrNoImage)
}

func (c *Client) post(ctx context.Context, apiKey, model, method string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/models/%s:%s?%s", c.baseURL, url.PathEscape(model), method, url.Values{"key": {apiKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.DebugContext(ctx, "upstream error", "model", model, "status", resp.StatusCode)
		return &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	if err = json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
