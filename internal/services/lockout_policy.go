package services

import (
	"log/slog"
	"time"

	"github.com/BradenHooton/accountdesk/internal/models"
)

// LockoutConfig holds the brute-force thresholds
type LockoutConfig struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// DefaultLockoutConfig is 5 failures followed by a 30 second lockout
var DefaultLockoutConfig = LockoutConfig{
	MaxFailedAttempts: 5,
	LockoutDuration:   30 * time.Second,
}

// LockoutPolicy applies the failure threshold to a session's AuthAttemptState.
// It never touches a store.
type LockoutPolicy struct {
	config LockoutConfig
	logger *slog.Logger
}

// NewLockoutPolicy creates a new LockoutPolicy
func NewLockoutPolicy(config LockoutConfig, logger *slog.Logger) *LockoutPolicy {
	if config.MaxFailedAttempts < 1 {
		config.MaxFailedAttempts = DefaultLockoutConfig.MaxFailedAttempts
	}
	if config.LockoutDuration <= 0 {
		config.LockoutDuration = DefaultLockoutConfig.LockoutDuration
	}
	return &LockoutPolicy{config: config, logger: logger}
}

// Check returns a LockedError while a lockout is in effect. An expired lockout
// starts a fresh failure window.
func (p *LockoutPolicy) Check(state *models.AuthAttemptState, now time.Time) error {
	if locked, remaining := state.LockedAt(now); locked {
		return &models.LockedError{Remaining: remaining}
	}
	if state.LockoutExpiry != nil {
		state.Reset()
	}
	return nil
}

// RecordFailure counts one failed attempt and starts a lockout when the
// threshold is reached. It reports whether the session is now locked.
func (p *LockoutPolicy) RecordFailure(state *models.AuthAttemptState, now time.Time) bool {
	state.FailedCount++
	if state.FailedCount < p.config.MaxFailedAttempts {
		return false
	}

	expiry := now.Add(p.config.LockoutDuration)
	state.LockoutExpiry = &expiry

	p.logger.Warn("session locked after repeated failures",
		slog.Int("failed_attempts", state.FailedCount),
		slog.Duration("lockout_duration", p.config.LockoutDuration))
	return true
}

// Config returns the effective thresholds
func (p *LockoutPolicy) Config() LockoutConfig {
	return p.config
}
