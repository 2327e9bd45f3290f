package services

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/BradenHooton/accountdesk/internal/config"
	pkgauth "github.com/BradenHooton/accountdesk/pkg/auth"
)

// SecretVerifier checks a presented shared secret
type SecretVerifier interface {
	Verify(secret string) bool
	Name() string
}

// BcryptVerifier compares against a bcrypt hash of the shared secret
type BcryptVerifier struct {
	hash string
}

// NewBcryptVerifier validates that hash is a bcrypt hash
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if !pkgauth.IsBcryptHash(hash) {
		return nil, errors.New("ACCESS_SECRET_HASH is not a valid bcrypt hash")
	}
	return &BcryptVerifier{hash: hash}, nil
}

func (v *BcryptVerifier) Verify(secret string) bool {
	return pkgauth.CompareSecret(v.hash, secret) == nil
}

func (v *BcryptVerifier) Name() string { return "bcrypt" }

// PlaintextVerifier compares against the secret itself.
//
// Deprecated: kept for deployments that still set ACCESS_SECRET. Use
// BcryptVerifier with ACCESS_SECRET_HASH instead.
type PlaintextVerifier struct {
	secret []byte
}

// NewPlaintextVerifier logs a warning every time it is constructed
func NewPlaintextVerifier(secret string, logger *slog.Logger) *PlaintextVerifier {
	logger.Warn("DEPRECATED: shared secret is configured in plain text; set ACCESS_SECRET_HASH (see `admin hash-secret`) and remove ACCESS_SECRET",
		slog.String("verifier", "plaintext"),
	)
	return &PlaintextVerifier{secret: []byte(secret)}
}

func (v *PlaintextVerifier) Verify(secret string) bool {
	return subtle.ConstantTimeCompare(v.secret, []byte(secret)) == 1
}

func (v *PlaintextVerifier) Name() string { return "plaintext" }

// NewSecretVerifier selects the verifier from configuration. A hash always wins
// over the deprecated plain-text secret.
func NewSecretVerifier(cfg config.AuthConfig, logger *slog.Logger) (SecretVerifier, error) {
	if cfg.AccessSecretHash != "" {
		if cfg.AccessSecret != "" {
			logger.Warn("both ACCESS_SECRET_HASH and ACCESS_SECRET are set; ignoring ACCESS_SECRET")
		}
		return NewBcryptVerifier(cfg.AccessSecretHash)
	}
	if cfg.AccessSecret != "" {
		return NewPlaintextVerifier(cfg.AccessSecret, logger), nil
	}
	return nil, &config.MissingError{Key: "ACCESS_SECRET_HASH (or deprecated ACCESS_SECRET)"}
}
