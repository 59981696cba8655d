package auth

import (
	"fmt"
	"time"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
)

// tokenIssuer is stamped into every token and required on verification
const tokenIssuer = "finance-tracker"

var (
	ErrInvalidToken = apperr.New(apperr.KindAuthentication, apperr.CodeInvalidToken, "invalid token")
	ErrExpiredToken = apperr.New(apperr.KindAuthentication, apperr.CodeTokenExpired, "token has expired")
)

// TokenClaims are the identity claims carried by a session token
type TokenClaims struct {
	TokenID   string    `json:"jti"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
// VerifyToken returns ErrExpiredToken or ErrInvalidToken and never partial claims.
type TokenService interface {
	CreateToken(userID int64, email string, duration time.Duration) (string, *TokenClaims, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// NewTokenService builds the token service for format ("jwt" or "paseto")
func NewTokenService(format string, key []byte) (TokenService, error) {
	switch format {
	case "jwt":
		svc, err := NewJWTService(key)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case "paseto":
		svc, err := NewPasetoService(key)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported token format %q", format)
	}
}
