package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/context"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/data"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

const (
	exportFileName = "slownictwo"
	mimeXLSX       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize  = 1 << 20
)

type (
	ExportQueryParams struct {
		Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	}

	TransferHandler struct {
		trainer *trainer.Trainer
		log     *slog.Logger
	}
)

func NewTransferHandler(t *trainer.Trainer, log *slog.Logger) *TransferHandler {
	return &TransferHandler{
		trainer: t,
		log:     log,
	}
}

func (h *TransferHandler) Export(c echo.Context) error {
	chatID := context.MustChatIDFromContext(c.Request().Context())

	var qp ExportQueryParams
	if err := c.Bind(&qp); err != nil {
		h.log.DebugContext(c.Request().Context(), "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	if err := c.Validate(&qp); err != nil {
		return err
	}
	if qp.Format == "" {
		qp.Format = "csv"
	}

	words, _, err := h.trainer.Words(c.Request().Context(), chatID, trainer.WordsFilter{})
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s.%s", exportFileName, qp.Format))
	if qp.Format == "xlsx" {
		res.Header().Set(echo.HeaderContentType, mimeXLSX)
		res.WriteHeader(http.StatusOK)
		return data.WriteXLSX(res, words)
	}
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	return data.WriteCSV(res, words)
}

// Import adds the valid rows of a CSV body and reports the rows that could not be parsed.
func (h *TransferHandler) Import(c echo.Context) error {
	ctx := c.Request().Context()
	chatID := context.MustChatIDFromContext(ctx)

	body := http.MaxBytesReader(c.Response(), c.Request().Body, maxImportSize)
	entries, err := data.ReadEntries(ctx, body, uuid.NewString)

	invalidLines := []int{}
	var parsingErr *data.ParsingError
	switch {
	case errors.As(err, &parsingErr):
		invalidLines = parsingErr.InvalidLines
	case err != nil:
		h.log.DebugContext(ctx, "failed to read import", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}

	added, err := h.trainer.Import(ctx, chatID, entries)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"added":         added,
		"invalid_lines": invalidLines,
	})
}
