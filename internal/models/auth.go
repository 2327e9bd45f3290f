package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthAttemptState tracks failed attempts of one session. It is never persisted.
type AuthAttemptState struct {
	FailedCount   int
	LockoutExpiry *time.Time
}

// Reset returns the state to (0, absent)
func (s *AuthAttemptState) Reset() {
	s.FailedCount = 0
	s.LockoutExpiry = nil
}

// LockedAt reports whether a lockout is in effect at now and how long it lasts
func (s *AuthAttemptState) LockedAt(now time.Time) (bool, time.Duration) {
	if s.LockoutExpiry == nil || !now.Before(*s.LockoutExpiry) {
		return false, 0
	}
	return true, s.LockoutExpiry.Sub(now)
}

// AuthenticatedSession is produced by a successful attempt
type AuthenticatedSession struct {
	Email           string    `json:"email"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	LoginCount      int64     `json:"login_count"`
}

// SessionClaims are carried by the session cookie token
type SessionClaims struct {
	Email      string `json:"email,omitempty"`
	LoginCount int64  `json:"login_count,omitempty"`
	jwt.RegisteredClaims
}
