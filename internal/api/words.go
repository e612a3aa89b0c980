package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/context"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

const defaultPageSize = 50

type (
	WordsQueryParams struct {
		Status   string `query:"status" validate:"omitempty,oneof=new learning learned"`
		Category string `query:"category"`
		Search   string `query:"search"`
		Offset   int    `query:"offset" validate:"min=0"`
		Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	CreateWordRequest struct {
		SourceText string `json:"source_text" validate:"required"`
		TargetText string `json:"target_text" validate:"required"`
		Category   string `json:"category"`
	}

	AnswerRequest struct {
		Correct *bool `json:"correct" validate:"required"`
	}

	WordsHandler struct {
		trainer *trainer.Trainer
		log     *slog.Logger
	}
)

func NewWordsHandler(t *trainer.Trainer, log *slog.Logger) *WordsHandler {
	return &WordsHandler{
		trainer: t,
		log:     log,
	}
}

func (h *WordsHandler) FindWords(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	var qp WordsQueryParams
	if err := c.Bind(&qp); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	if err := c.Validate(&qp); err != nil {
		return err
	}
	if qp.Limit == 0 {
		qp.Limit = defaultPageSize
	}

	words, total, err := h.trainer.Words(c.Request().Context(), chatID, trainer.WordsFilter{
		Status:   dal.Status(qp.Status),
		Category: qp.Category,
		Search:   qp.Search,
		Offset:   qp.Offset,
		Limit:    qp.Limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": words,
		"total": total,
	})
}

func (h *WordsHandler) GetWord(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	word, err := h.trainer.Word(c.Request().Context(), chatID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, word)
}

func (h *WordsHandler) CreateWord(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	var req CreateWordRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	word, err := h.trainer.AddWord(c.Request().Context(), chatID, req.SourceText, req.TargetText, req.Category)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, word)
}

func (h *WordsHandler) Answer(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.trainer.Answer(c.Request().Context(), chatID, c.Param("id"), *req.Correct)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entry":         res.Entry,
		"interval_days": res.Outcome.IntervalDays,
		"advised":       res.Outcome.Advised,
		"difficult":     res.Outcome.Difficult,
	})
}

func (h *WordsHandler) Image(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	url, err := h.trainer.ImageURL(c.Request().Context(), chatID, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

func (h *WordsHandler) Deduplicate(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	removed, err := h.trainer.Deduplicate(c.Request().Context(), chatID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}

func (h *WordsHandler) ResetProgress(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	if err := h.trainer.ResetProgress(c.Request().Context(), chatID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "progress reset"})
}

func (h *WordsHandler) ResetAll(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	if err := h.trainer.ResetAll(c.Request().Context(), chatID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "all data reset"})
}
