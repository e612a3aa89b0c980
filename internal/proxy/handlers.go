package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const missingKeyMessage = "Missing Google API key. Set PROXY_GOOGLE_API_KEY on the server."

type (
	ImageClient interface {
		GenerateImage(ctx context.Context, apiKey, model, prompt string, config map[string]any) (Image, error)
		GenerateContent(ctx context.Context, apiKey, model, prompt string, generationConfig map[string]any) (Image, error)
	}

	ImagenRequest struct {
		Prompt string         `json:"prompt"`
		Config map[string]any `json:"config"`
		APIKey string         `json:"apiKey"`
	}

	FlashRequest struct {
		Prompt           string         `json:"prompt"`
		Model            string         `json:"model"`
		GenerationConfig map[string]any `json:"generationConfig"`
		APIKey           string         `json:"apiKey"`
	}

	Handler struct {
		client      ImageClient
		apiKey      string
		imagenModel string
		flashModel  string
		log         *slog.Logger
	}
)

func NewHandler(client ImageClient, apiKey, imagenModel, flashModel string, log *slog.Logger) *Handler {
	return &Handler{
		client:      client,
		apiKey:      strings.TrimSpace(apiKey),
		imagenModel: imagenModel,
		flashModel:  flashModel,
		log:         log,
	}
}

func (h *Handler) Status(c echo.Context) error {
	return c.String(http.StatusOK, "AI proxy is running. Endpoints: POST /api/imagen4, POST /api/gemini/flash-preview")
}

func (h *Handler) Imagen(c echo.Context) error {
	var req ImagenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	apiKey, ok := h.resolveAPIKey(c, req.APIKey)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": missingKeyMessage})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing prompt"})
	}

	img, err := h.client.GenerateImage(c.Request().Context(), apiKey, h.imagenModel, req.Prompt, req.Config)
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

func (h *Handler) Flash(c echo.Context) error {
	var req FlashRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	apiKey, ok := h.resolveAPIKey(c, req.APIKey)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": missingKeyMessage})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing prompt"})
	}
	model := req.Model
	if model == "" {
		model = h.flashModel
	}

	img, err := h.client.GenerateContent(c.Request().Context(), apiKey, model, req.Prompt, req.GenerationConfig)
	if err != nil {
		return h.failure(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

// resolveAPIKey prefers the server key, then the x-api-key or x-google-api-key header, then the body.
func (h *Handler) resolveAPIKey(c echo.Context, bodyKey string) (string, bool) {
	if h.apiKey != "" {
		return h.apiKey, true
	}
	for _, header := range []string{"x-api-key", "x-google-api-key"} {
		if v := strings.TrimSpace(c.Request().Header.Get(header)); v != "" {
			return v, true
		}
	}
	if v := strings.TrimSpace(bodyKey); v != "" {
		return v, true
	}
	return "", false
}

func (h *Handler) failure(c echo.Context, err error) error {
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		return c.JSON(upstream.Status, echo.Map{"error": "Upstream error", "status": upstream.Status, "body": upstream.Body})
	case errors.Is(err, ErrNoImage):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "No image returned"})
	default:
		h.log.ErrorContext(c.Request().Context(), "failed to relay image request", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Proxy error", "details": err.Error()})
	}
}
