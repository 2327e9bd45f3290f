package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "accountdesk"

// TokenManager signs and validates the session cookie token. The token only
// identifies a server-side session (jti); it grants nothing on its own.
type TokenManager struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, maxAge time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// MaxAge is the lifetime of issued tokens
func (tm *TokenManager) MaxAge() time.Duration {
	return tm.maxAge
}

// GenerateSessionToken issues a token for sessionID. principal may be nil for
// anonymous sessions.
func (tm *TokenManager) GenerateSessionToken(sessionID string, principal *models.AuthenticatedSession) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}

	now := tm.now()
	claims := &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if principal != nil {
		claims.Email = principal.Email
		claims.LoginCount = principal.LoginCount
		claims.Subject = principal.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("invalid token: missing session id")
	}

	return claims, nil
}
