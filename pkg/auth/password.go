package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	TokenKeyLength = 32 // 256 bits
	MinSecretLen   = 12
	MaxSecretLen   = 72 // bcrypt ignores anything longer
)

// SecretValidationError lists why a shared secret was rejected
type SecretValidationError struct {
	Errors []string
}

func (e *SecretValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "secret validation failed"
	}
	return "weak secret: " + strings.Join(e.Errors, "; ")
}

var commonSecrets = map[string]bool{
	"password":     true,
	"password123":  true,
	"password123!": true,
	"123456789012": true,
	"qwertyuiop":   true,
	"changeme":     true,
	"letmein":      true,
	"welcome":      true,
	"admin":        true,
	"negociacion":  true,
	"cobranza":     true,
}

// HashSecret returns the bcrypt hash stored as ACCESS_SECRET_HASH
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareSecret compares in constant time; nil means the secret matches
func CompareSecret(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}

// IsBcryptHash reports whether s parses as a bcrypt hash
func IsBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// GenerateTokenKey returns a random base64 key suitable for SESSION_SECRET
func GenerateTokenKey() (string, error) {
	bytes := make([]byte, TokenKeyLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}

// ValidateSecret enforces minimum strength for a new shared secret.
// At least three of the four character classes are required.
func ValidateSecret(secret string) error {
	errors := make([]string, 0)

	if len(secret) < MinSecretLen {
		errors = append(errors, fmt.Sprintf("must be at least %d characters", MinSecretLen))
	}
	if len(secret) > MaxSecretLen {
		errors = append(errors, fmt.Sprintf("must be at most %d bytes", MaxSecretLen))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range secret {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	classes := 0
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		errors = append(errors, "must mix at least three of: upper case, lower case, digits, symbols")
	}

	if commonSecrets[strings.ToLower(secret)] {
		errors = append(errors, "is too common")
	}

	if len(errors) > 0 {
		return &SecretValidationError{Errors: errors}
	}

	return nil
}
