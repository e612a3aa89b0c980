package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
)

const (
	authCookieName   = "auth"
	accessCookieName = "access"
)

type CookiesProcessor struct {
	path            string
	domain          string
	authExpiresIn   time.Duration
	accessExpiresIn time.Duration
	now             func() time.Time
}

func NewCookiesProcessor(conf config.Cookie) *CookiesProcessor {
	return &CookiesProcessor{
		path:            conf.Path,
		domain:          conf.Domain,
		authExpiresIn:   conf.AuthExpiresIn,
		accessExpiresIn: conf.AccessExpiresIn,
		now:             time.Now,
	}
}

func (p *CookiesProcessor) NewAuthTokenCookie(token string) *http.Cookie {
	return p.cookie(authCookieName, token, p.authExpiresIn)
}

func (p *CookiesProcessor) NewAccessTokenCookie(token string) *http.Cookie {
	return p.cookie(accessCookieName, token, p.accessExpiresIn)
}

func (p *CookiesProcessor) ExpireAuthTokenCookie() *http.Cookie {
	return p.expired(authCookieName)
}

func (p *CookiesProcessor) ExpireAccessTokenCookie() *http.Cookie {
	return p.expired(accessCookieName)
}

func (p *CookiesProcessor) GetAuthToken(c echo.Context) (string, bool) {
	return value(c, authCookieName)
}

func (p *CookiesProcessor) GetAccessToken(c echo.Context) (string, bool) {
	return value(c, accessCookieName)
}

func (p *CookiesProcessor) cookie(name, token string, expiresIn time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Path:     p.path,
		Domain:   p.domain,
		Value:    token,
		Expires:  p.now().Add(expiresIn),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (p *CookiesProcessor) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:    name,
		Path:    p.path,
		Domain:  p.domain,
		Expires: p.now(),
		MaxAge:  -1,
	}
}

func value(c echo.Context, name string) (string, bool) {
	cookie, err := c.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
