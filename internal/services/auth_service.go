package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/models"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

// CredentialStore defines the allow-list, audit and counter operations the gate needs
type CredentialStore interface {
	IsActiveMember(ctx context.Context, identity string) (bool, error)
	AppendAudit(ctx context.Context, record *models.AuditRecord) error
	IncrementLoginCount(ctx context.Context, identity string) (int64, error)
}

// AuthService is the credential gate. Attempt state is owned by the caller's
// session and passed in on every call.
type AuthService struct {
	store       CredentialStore
	verifier    SecretVerifier
	lockout     *LockoutPolicy
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(store CredentialStore, verifier SecretVerifier, lockout *LockoutPolicy, timing *auth.TimingDelay, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		store:       store,
		verifier:    verifier,
		lockout:     lockout,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// WithClock replaces the wall clock, used by tests
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Attempt runs one authentication attempt against state.
//
// Invalid identities and attempts during a lockout never reach the store.
// Allow-list and secret failures count towards the lockout threshold; only a
// fully verified attempt is audited and counted.
func (s *AuthService) Attempt(ctx context.Context, state *models.AuthAttemptState, identity, secret string, meta models.ClientMeta) (*models.AuthenticatedSession, error) {
	if !models.ValidIdentity(identity) {
		return nil, models.ErrInvalidIdentity
	}
	identity = models.NormalizeIdentity(identity)
	now := s.now()
	start := time.Now()

	if err := s.lockout.Check(state, now); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Identity:      pkglogger.SanitizedEmail(identity),
			IPAddress:     meta.IPAddress,
			UserAgent:     meta.UserAgent,
			FailureReason: "locked",
		})
		return nil, err
	}

	member, err := s.store.IsActiveMember(ctx, identity)
	if err != nil {
		s.logger.Error("allow-list check failed", slog.Any("error", err))
		return nil, err
	}
	if !member {
		// same work as a wrong secret, so timing does not reveal membership
		s.verifier.Verify(secret)
		return nil, s.fail(state, start, now, identity, meta, "not_allowed")
	}

	if !s.verifier.Verify(secret) {
		return nil, s.fail(state, start, now, identity, meta, "invalid_secret")
	}

	record := &models.AuditRecord{
		Email:      identity,
		OccurredAt: now.UTC(),
		ClientMeta: meta.Metadata(),
	}
	if err := s.store.AppendAudit(ctx, record); err != nil {
		s.logger.Error("failed to append login audit", slog.Any("error", err))
		return nil, err
	}

	count, err := s.store.IncrementLoginCount(ctx, identity)
	if err != nil {
		s.logger.Error("failed to increment login counter", slog.Any("error", err))
		return nil, err
	}

	state.Reset()
	s.timing.WaitFrom(start, true)

	s.logger.Info("operator authenticated",
		slog.String("email", pkglogger.SanitizedEmail(identity)),
		slog.Int64("login_count", count))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Identity:  pkglogger.SanitizedEmail(identity),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   true,
	})

	return &models.AuthenticatedSession{
		Email:           identity,
		AuthenticatedAt: now,
		LoginCount:      count,
	}, nil
}

// fail records a failed attempt and pads the response to the same total time since start
func (s *AuthService) fail(state *models.AuthAttemptState, start, now time.Time, identity string, meta models.ClientMeta, reason string) error {
	locked := s.lockout.RecordFailure(state, now)

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Identity:      pkglogger.SanitizedEmail(identity),
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		FailureReason: reason,
		Metadata:      map[string]string{"locked": strconv.FormatBool(locked)},
	})
	s.timing.WaitFrom(start, false)

	return models.ErrUnauthorized
}

// IsClientError reports whether err is an expected gate outcome rather than a failure of the service
func IsClientError(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) ||
		errors.Is(err, models.ErrUnauthorized) ||
		errors.Is(err, models.ErrLocked)
}
