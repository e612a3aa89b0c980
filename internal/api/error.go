package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/generator"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/provider/image"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/study"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

type ErrorResponse struct {
	Message string `json:"error"`
}

var (
	InternalServerError = ErrorResponse{"Internal server error"} //nolint:gochecknoglobals // this is a constant response for internal server error
	BadRequestError     = ErrorResponse{"Bad request"}           //nolint:gochecknoglobals // this is a constant response for bad request
)

// toHTTPError maps domain errors onto client errors; anything else stays an internal error.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, trainer.ErrEntryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "entry not found")
	case errors.Is(err, trainer.ErrDuplicateEntry):
		return echo.NewHTTPError(http.StatusConflict, "entry already exists")
	case errors.Is(err, trainer.ErrInvalidEntry):
		return echo.NewHTTPError(http.StatusBadRequest, trainer.ErrInvalidEntry.Error())
	case errors.Is(err, study.ErrEmptyStudySet):
		return echo.NewHTTPError(http.StatusConflict, study.ErrEmptyStudySet.Error())
	case errors.Is(err, dal.ErrInvalidSettings):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, generator.ErrParse):
		return echo.NewHTTPError(http.StatusBadGateway, "provider reply could not be parsed")
	case errors.Is(err, trainer.ErrNoImages):
		return echo.NewHTTPError(http.StatusServiceUnavailable, trainer.ErrNoImages.Error())
	case errors.Is(err, image.ErrNoImage):
		return echo.NewHTTPError(http.StatusNotFound, "no image available")
	default:
		return err
	}
}

func HTTPErrorHandler(log *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		if c.Response().Committed {
			log.ErrorContext(ctx, "failed to process request after response was written", "error", err)
			return
		}

		var echoError *echo.HTTPError
		if !errors.As(err, &echoError) {
			log.ErrorContext(ctx, "failed to process request", "error", err)
			writeError(c, log, http.StatusInternalServerError, InternalServerError)
			return
		}

		if echoError.Code >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "failed to process request", "error", err)
		} else {
			log.DebugContext(ctx, "request rejected", "status", echoError.Code, "error", err)
		}

		if message, ok := echoError.Message.(string); ok {
			if message == "" || echoError.Code == http.StatusInternalServerError {
				message = InternalServerError.Message
			}
			writeError(c, log, echoError.Code, ErrorResponse{Message: message})
			return
		}

		bytes, mErr := json.Marshal(echoError.Message)
		if mErr != nil {
			log.ErrorContext(ctx, "failed to marshal error message", "error", mErr)
			writeError(c, log, echoError.Code, InternalServerError)
			return
		}
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if wErr := c.String(echoError.Code, string(bytes)); wErr != nil {
			log.ErrorContext(ctx, "failed to write error response", "error", wErr)
		}
	}
}

func writeError(c echo.Context, log *slog.Logger, code int, res ErrorResponse) {
	if err := c.JSON(code, res); err != nil {
		log.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
	}
}
