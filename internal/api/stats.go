package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/context"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

type StatsHandler struct {
	trainer *trainer.Trainer
	log     *slog.Logger
}

func NewStatsHandler(t *trainer.Trainer, log *slog.Logger) *StatsHandler {
	return &StatsHandler{
		trainer: t,
		log:     log,
	}
}

func (h *StatsHandler) Stats(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	stats, err := h.trainer.Stats(c.Request().Context(), chatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Profile(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	profile, err := h.trainer.Profile(c.Request().Context(), chatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *StatsHandler) Categories(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	categories, err := h.trainer.Categories(c.Request().Context(), chatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": categories})
}

func (h *StatsHandler) Settings(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	settings, err := h.trainer.Settings(c.Request().Context(), chatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *StatsHandler) UpdateSettings(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	var req dal.Settings
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}

	if err := h.trainer.UpdateSettings(c.Request().Context(), chatID, req); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, req)
}
