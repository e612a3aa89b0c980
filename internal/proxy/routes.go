package proxy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
)

const maxBodySize = "2M"

func NewRouter(ctx context.Context, conf *config.Proxy, client ImageClient, log *slog.Logger) http.Handler {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(ctx, level, "REQUEST", slog.String("uri", v.URI), slog.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(conf.RateLimit))))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.CORS.AllowOrigins,
		AllowHeaders: []string{echo.HeaderContentType, "x-api-key", "x-google-api-key"},
	}))
	e.Use(middleware.ContextTimeout(conf.ProcessTimeout))

	h := NewHandler(client, conf.Google.APIKey, conf.Google.ImagenModel, conf.Google.FlashModel, log)
	e.GET("/", h.Status)
	e.POST("/api/imagen4", h.Imagen)
	e.POST("/api/gemini/flash-preview", h.Flash)

	return e
}
