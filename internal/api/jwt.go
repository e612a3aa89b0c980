package api

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Roma7-7-7/vocabulary-trainer/internal/config"
)

var errInvalidSubject = errors.New("invalid subject")

type (
	// JWTProcessor signs two kinds of tokens: an auth token bound to a pending Telegram confirmation
	// and an access token issued once the confirmation is accepted.
	JWTProcessor struct {
		issuer          string
		audience        []string
		authExpiresIn   time.Duration
		accessExpiresIn time.Duration

		secret []byte
		now    func() time.Time
	}

	Claims struct {
		Username string `json:"username"`
		jwt.RegisteredClaims
	}
)

func NewJWTProcessor(conf config.JWT, authExpiresIn, accessExpiresIn time.Duration) *JWTProcessor {
	return &JWTProcessor{
		issuer:          conf.Issuer,
		audience:        conf.Audience,
		authExpiresIn:   authExpiresIn,
		accessExpiresIn: accessExpiresIn,

		secret: []byte(conf.Secret),
		now:    time.Now,
	}
}

func (p *JWTProcessor) ToAuthToken(chatID int64, key string) (string, error) {
	return p.sign(chatID, fmt.Sprintf("%d:%s", chatID, key), p.authExpiresIn)
}

func (p *JWTProcessor) ParseAuthToken(token string) (int64, string, error) {
	subject, err := p.parse(token)
	if err != nil {
		return 0, "", err
	}

	rawChatID, key, ok := strings.Cut(subject, ":")
	if !ok || key == "" {
		return 0, "", errInvalidSubject
	}
	chatID, err := strconv.ParseInt(rawChatID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse subject: %w", err)
	}
	return chatID, key, nil
}

func (p *JWTProcessor) ToAccessToken(chatID int64) (string, error) {
	return p.sign(chatID, strconv.FormatInt(chatID, 10), p.accessExpiresIn)
}

func (p *JWTProcessor) ParseAccessToken(token string) (int64, error) {
	subject, err := p.parse(token)
	if err != nil {
		return 0, err
	}

	chatID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}
	return chatID, nil
}

func (p *JWTProcessor) sign(chatID int64, subject string, expiresIn time.Duration) (string, error) {
	now := p.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: strconv.FormatInt(chatID, 10),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   subject,
			Audience:  p.audience,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse validates signature, time claims, issuer and audience and returns the subject.
func (p *JWTProcessor) parse(token string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	for _, aud := range p.audience {
		if !slices.Contains(claims.Audience, aud) {
			return "", fmt.Errorf("invalid audience")
		}
	}
	return claims.Subject, nil
}
