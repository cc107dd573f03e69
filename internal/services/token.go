package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/neurobridge-media/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-media/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies the HS256 bearer tokens that guard
// mutating API routes.
type TokenService interface {
	Issue(subject string, ttl time.Duration) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type tokenService struct {
	log    *logger.Logger
	secret []byte
}

func NewTokenService(log *logger.Logger, secret string) (TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("MEDIA_API_SECRET is empty")
	}
	return &tokenService{log: log.With("service", "TokenService"), secret: []byte(secret)}, nil
}

func (ts *tokenService) Issue(subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("subject required")
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

func (ts *tokenService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return ts.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ctx, fmt.Errorf("token has no subject")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{Subject: claims.Subject}), nil
}
