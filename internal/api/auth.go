package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appctx "github.com/Roma7-7-7/vocabulary-trainer/internal/context"
	"github.com/Roma7-7-7/vocabulary-trainer/internal/dal"
)

type (
	TelegramClient interface {
		AskAuthConfirmation(ctx context.Context, chatID int64, token string) error
	}

	AuthDependencies struct {
		Repo             dal.AuthConfirmationRepository
		JWTProcessor     *JWTProcessor
		CookiesProcessor *CookiesProcessor
		TelegramClient   TelegramClient
		AllowedChatIDs   []int64
		Logger           *slog.Logger
	}

	// AuthHandler implements login confirmed through Telegram: login stores a pending confirmation and
	// sets an auth cookie, status exchanges a confirmed auth cookie for an access cookie.
	AuthHandler struct {
		repo             dal.AuthConfirmationRepository
		teleClient       TelegramClient
		jwtProcessor     *JWTProcessor
		cookiesProcessor *CookiesProcessor
		allowedChatIDs   map[int64]bool

		log *slog.Logger
	}

	loginRequest struct {
		ChatID int64 `json:"chat_id" validate:"required"`
	}

	statusResponse struct {
		Authenticated bool  `json:"authenticated"`
		ChatID        int64 `json:"chat_id"`
	}
)

func NewAuthHandler(deps AuthDependencies) *AuthHandler {
	allowedChatIDs := make(map[int64]bool, len(deps.AllowedChatIDs))
	for _, chatID := range deps.AllowedChatIDs {
		allowedChatIDs[chatID] = true
	}
	return &AuthHandler{
		repo:             deps.Repo,
		teleClient:       deps.TelegramClient,
		jwtProcessor:     deps.JWTProcessor,
		cookiesProcessor: deps.CookiesProcessor,
		allowedChatIDs:   allowedChatIDs,

		log: deps.Logger,
	}
}

func (h *AuthHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"chat_id": appctx.MustChatIDFromContext(c.Request().Context()),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		h.log.DebugContext(ctx, "failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, BadRequestError)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if !h.allowedChatIDs[req.ChatID] {
		h.log.DebugContext(ctx, "chat ID not allowed", "chat_id", req.ChatID)
		return c.JSON(http.StatusForbidden, ErrorResponse{Message: "chat ID not allowed"})
	}

	key := uuid.NewString()
	if err := h.repo.InsertAuthConfirmation(ctx, req.ChatID, key, h.cookiesProcessor.authExpiresIn); err != nil {
		h.log.ErrorContext(ctx, "failed to insert auth confirmation", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}
	if err := h.teleClient.AskAuthConfirmation(ctx, req.ChatID, key); err != nil {
		h.log.ErrorContext(ctx, "failed to ask auth confirmation", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}

	token, err := h.jwtProcessor.ToAuthToken(req.ChatID, key)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to create auth token", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}
	c.SetCookie(h.cookiesProcessor.NewAuthTokenCookie(token))

	return c.JSON(http.StatusAccepted, echo.Map{"status": "pending"})
}

func (h *AuthHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()
	var res statusResponse

	token, ok := h.cookiesProcessor.GetAuthToken(c)
	if !ok {
		if _, ok = h.cookiesProcessor.GetAccessToken(c); ok {
			return h.accessStatus(c)
		}
		return c.JSON(http.StatusUnauthorized, res)
	}
	chatID, key, err := h.jwtProcessor.ParseAuthToken(token)
	if err != nil {
		h.log.WarnContext(ctx, "failed to parse auth token", "error", err)
		return c.JSON(http.StatusUnauthorized, res)
	}
	res.ChatID = chatID

	confirmed, err := h.repo.IsConfirmed(ctx, chatID, key)
	switch {
	case errors.Is(err, dal.ErrNotFound):
		return c.JSON(http.StatusOK, res)
	case err != nil:
		h.log.ErrorContext(ctx, "failed to check auth confirmation", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	case !confirmed:
		return c.JSON(http.StatusOK, res)
	}

	accessToken, err := h.jwtProcessor.ToAccessToken(chatID)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to create access token", "error", err)
		return c.JSON(http.StatusInternalServerError, InternalServerError)
	}
	if err = h.repo.DeleteAuthConfirmation(ctx, chatID, key); err != nil {
		h.log.WarnContext(ctx, "failed to delete used auth confirmation", "error", err)
	}

	res.Authenticated = true
	c.SetCookie(h.cookiesProcessor.NewAccessTokenCookie(accessToken))
	c.SetCookie(h.cookiesProcessor.ExpireAuthTokenCookie())
	return c.JSON(http.StatusOK, res)
}

// accessStatus reports an already issued access cookie.
func (h *AuthHandler) accessStatus(c echo.Context) error {
	token, _ := h.cookiesProcessor.GetAccessToken(c)
	chatID, err := h.jwtProcessor.ParseAccessToken(token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, statusResponse{})
	}
	return c.JSON(http.StatusOK, statusResponse{Authenticated: true, ChatID: chatID})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	c.SetCookie(h.cookiesProcessor.ExpireAccessTokenCookie())
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
