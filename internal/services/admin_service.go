package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BradenHooton/accountdesk/internal/models"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

// AdminStore is the subset of CredentialRepository methods needed by AdminService.
type AdminStore interface {
	UpsertAllowListEntry(ctx context.Context, identity string, active bool) (*models.AllowListEntry, error)
	SetActive(ctx context.Context, identity string, active bool) error
	GetLoginCounter(ctx context.Context, identity string) (*models.LoginCounter, error)
	ListAudit(ctx context.Context, identity string, limit int) ([]*models.AuditRecord, error)
}

// ActivityEntry is a single item in an operator's login history.
type ActivityEntry struct {
	Timestamp string `json:"timestamp"`
	Email     string `json:"email"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// OperatorActivity is the login counter and recent audit trail of one operator.
type OperatorActivity struct {
	Email       string          `json:"email"`
	LoginCount  int64           `json:"login_count"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	Recent      []ActivityEntry `json:"recent"`
}

// AdminService manages the allow-list and reads back login activity.
type AdminService struct {
	store       AdminStore
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAdminService creates a new AdminService.
func NewAdminService(store AdminStore, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AdminService {
	return &AdminService{
		store:       store,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AddMember allow-lists identity, re-activating it if it was disabled.
func (s *AdminService) AddMember(ctx context.Context, identity string) (*models.AllowListEntry, error) {
	if !models.ValidIdentity(identity) {
		return nil, models.ErrInvalidIdentity
	}
	identity = models.NormalizeIdentity(identity)

	entry, err := s.store.UpsertAllowListEntry(ctx, identity, true)
	if err != nil {
		s.logger.Error("allow-list: failed to add member", slog.Any("error", err))
		return nil, err
	}

	s.auditLogger.LogAdminAction("allow_list_add", pkglogger.SanitizedEmail(identity), nil)
	return entry, nil
}

// SetMemberActive enables or disables an existing allow-list entry.
func (s *AdminService) SetMemberActive(ctx context.Context, identity string, active bool) error {
	if !models.ValidIdentity(identity) {
		return models.ErrInvalidIdentity
	}
	identity = models.NormalizeIdentity(identity)

	if err := s.store.SetActive(ctx, identity, active); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("allow-list: failed to update member", slog.Any("error", err))
		}
		return err
	}

	event := "allow_list_enable"
	if !active {
		event = "allow_list_disable"
	}
	s.auditLogger.LogAdminAction(event, pkglogger.SanitizedEmail(identity), nil)
	return nil
}

// Activity returns the login counter and the most recent audit records of identity.
// limit is clamped by the store.
func (s *AdminService) Activity(ctx context.Context, identity string, limit int) (*OperatorActivity, error) {
	if !models.ValidIdentity(identity) {
		return nil, models.ErrInvalidIdentity
	}
	identity = models.NormalizeIdentity(identity)

	activity := &OperatorActivity{Email: identity, Recent: []ActivityEntry{}}

	counter, err := s.store.GetLoginCounter(ctx, identity)
	switch {
	case err == nil:
		activity.LoginCount = counter.Count
		last := counter.LastLoginAt
		activity.LastLoginAt = &last
	case errors.Is(err, models.ErrNotFound):
		// never logged in
	default:
		s.logger.Error("activity: failed to read login counter", slog.Any("error", err))
		return nil, err
	}

	records, err := s.store.ListAudit(ctx, identity, limit)
	if err != nil {
		s.logger.Error("activity: failed to list audit records", slog.Any("error", err))
		return nil, err
	}

	for _, r := range records {
		activity.Recent = append(activity.Recent, ActivityEntry{
			Timestamp: r.OccurredAt.UTC().Format(time.RFC3339),
			Email:     r.Email,
			IPAddress: r.ClientMeta.String("ip_address"),
			UserAgent: r.ClientMeta.String("user_agent"),
		})
	}

	return activity, nil
}
