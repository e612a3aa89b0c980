package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/trainer"
)

type (
	Dependencies struct {
		Repo           dal.AuthConfirmationRepository
		Trainer        *trainer.Trainer
		TelegramClient TelegramClient
		Logger         *slog.Logger
	}
)

func NewRouter(ctx context.Context, conf *config.API, deps Dependencies) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{v: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(loggingMiddleware(ctx, deps.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(conf.HTTP.RateLimit))))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.HTTP.CORS.AllowOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.ContextTimeout(conf.HTTP.ProcessTimeout))
	e.Use(middleware.Secure())

	e.HTTPErrorHandler = HTTPErrorHandler(deps.Logger)

	jwtProcessor := NewJWTProcessor(conf.HTTP.JWT, conf.HTTP.Cookie.AuthExpiresIn, conf.HTTP.Cookie.AccessExpiresIn)
	cookiesProcessor := NewCookiesProcessor(conf.HTTP.Cookie)

	auth := NewAuthHandler(AuthDependencies{
		Repo:             deps.Repo,
		JWTProcessor:     jwtProcessor,
		CookiesProcessor: cookiesProcessor,
		TelegramClient:   deps.TelegramClient,
		AllowedChatIDs:   conf.Telegram.AllowedChatIDs,
		Logger:           deps.Logger,
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "version": conf.BuildInfo.Version})
	})
	e.POST("/auth/login", auth.Login)
	e.GET("/auth/status", auth.Status)

	secured := e.Group("", AuthMiddleware(cookiesProcessor, jwtProcessor, deps.Logger))
	secured.POST("/auth/logout", auth.LogOut)
	secured.GET("/auth/info", auth.Info)

	words := NewWordsHandler(deps.Trainer, deps.Logger)
	secured.GET("/words", words.FindWords)
	secured.POST("/words", words.CreateWord)
	secured.GET("/words/:id", words.GetWord)
	secured.POST("/words/:id/answer", words.Answer)
	secured.GET("/words/:id/image", words.Image)
	secured.POST("/words/deduplicate", words.Deduplicate)
	secured.POST("/words/reset-progress", words.ResetProgress)
	secured.POST("/reset", words.ResetAll)

	session := NewSessionHandler(deps.Trainer, deps.Logger)
	secured.POST("/session", session.Prepare)
	secured.POST("/words/generate", session.Generate)

	stats := NewStatsHandler(deps.Trainer, deps.Logger)
	secured.GET("/stats", stats.Stats)
	secured.GET("/profile", stats.Profile)
	secured.GET("/categories", stats.Categories)
	secured.GET("/settings", stats.Settings)
	secured.PUT("/settings", stats.UpdateSettings)

	transfer := NewTransferHandler(deps.Trainer, deps.Logger)
	secured.GET("/export", transfer.Export)
	secured.POST("/import", transfer.Import)

	return e
}
