package models

import (
	"strings"
	"time"
)

// NormalizeIdentity returns the case-insensitive form of an identity
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// ValidIdentity reports whether identity is syntactically an e-mail address
func ValidIdentity(identity string) bool {
	identity = strings.TrimSpace(identity)
	return identity != "" && strings.Contains(identity, "@")
}

// AllowListEntry is an identity permitted to authenticate.
// Maintained by administrators, read-only to the gate.
type AllowListEntry struct {
	Email     string    `db:"email"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// LoginCounter is the cumulative number of successful logins of an identity
type LoginCounter struct {
	Email       string    `db:"email"`
	Count       int64     `db:"count"`
	LastLoginAt time.Time `db:"last_login_at"`
}
