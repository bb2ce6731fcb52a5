// Package auth issues and verifies the JWT pair used by the HTTP API.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"expenseintel/internal/core"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// ResetTokenTTL bounds how long a password-reset token stays redeemable.
const ResetTokenTTL = 15 * time.Minute

type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs access and refresh tokens with separate secrets so a
// leaked refresh secret cannot mint access tokens and vice versa.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("token secrets must not be empty")
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (m *TokenManager) NewAccessToken(userID uuid.UUID) (string, error) {
	return m.sign(userID, TokenTypeAccess, m.accessSecret, m.accessTTL)
}

func (m *TokenManager) NewRefreshToken(userID uuid.UUID) (string, error) {
	return m.sign(userID, TokenTypeRefresh, m.refreshSecret, m.refreshTTL)
}

// NewResetToken mints a short-lived password-reset token. It shares the
// access secret but carries its own type claim, so it cannot pass for an
// access token.
func (m *TokenManager) NewResetToken(userID uuid.UUID) (string, error) {
	return m.sign(userID, TokenTypeReset, m.accessSecret, ResetTokenTTL)
}

func (m *TokenManager) sign(userID uuid.UUID, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// VerifyAccessToken returns the user ID carried by a valid access token.
func (m *TokenManager) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	return m.verify(tokenString, TokenTypeAccess, m.accessSecret)
}

// VerifyRefreshToken returns the user ID carried by a valid refresh token.
func (m *TokenManager) VerifyRefreshToken(tokenString string) (uuid.UUID, error) {
	return m.verify(tokenString, TokenTypeRefresh, m.refreshSecret)
}

// VerifyResetToken returns the user ID carried by a valid password-reset
// token.
func (m *TokenManager) VerifyResetToken(tokenString string) (uuid.UUID, error) {
	return m.verify(tokenString, TokenTypeReset, m.accessSecret)
}

func (m *TokenManager) verify(tokenString, wantType string, secret []byte) (uuid.UUID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid token", core.ErrUnauthorized)
	}
	if claims.TokenType != wantType {
		return uuid.Nil, fmt.Errorf("%w: wrong token type", core.ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid token subject", core.ErrUnauthorized)
	}
	return userID, nil
}
