package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/context"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

type (
	GenerateRequest struct {
		Count int `json:"count" validate:"required,min=1,max=20"`
	}

	SessionHandler struct {
		trainer *trainer.Trainer
		log     *slog.Logger
	}
)

func NewSessionHandler(t *trainer.Trainer, log *slog.Logger) *SessionHandler {
	return &SessionHandler{
		trainer: t,
		log:     log,
	}
}

// Prepare returns the study set; words generated to reach the daily goal are already stored.
func (h *SessionHandler) Prepare(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	items, err := h.trainer.PrepareSession(c.Request().Context(), chatID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": len(items),
	})
}

func (h *SessionHandler) Generate(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	items, err := h.trainer.Generate(c.Request().Context(), chatID, req.Count)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": len(items),
	})
}
