package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/BradenHooton/accountdesk/pkg/format"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

// AccountStore is an exact-match record source
type AccountStore interface {
	FetchByKey(ctx context.Context, key string) (models.AccountRecord, error)
}

// KeyLister is implemented by stores small enough to enumerate, such as the demo source
type KeyLister interface {
	Keys() []string
}

// LookupService drives the per-session lookup state machine
type LookupService struct {
	store       AccountStore
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewLookupService creates a new LookupService
func NewLookupService(store AccountStore, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *LookupService {
	return &LookupService{
		store:       store,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// LookupView is the rendered state shown to the operator
type LookupView struct {
	Status  models.LookupStatus `json:"status"`
	Key     string              `json:"key,omitempty"`
	Message string              `json:"message"`
	Reason  string              `json:"reason,omitempty"`
	Fields  []format.Field      `json:"fields,omitempty"`
	Keys    []string            `json:"keys,omitempty"`
}

// Search is the explicit search trigger. A blank key resets the state without
// touching the store. Repeating the last settled key is answered from state.
// Only a store failure is returned as an error; NotFound is a state.
func (s *LookupService) Search(ctx context.Context, state *models.LookupSessionState, key, identity string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		state.Reset()
		return models.ErrEmptyKey
	}

	if state.Settled(key) {
		s.logger.Debug("lookup served from session", slog.String("key", key))
		return nil
	}

	state.Status = models.LookupSearching
	state.LastSubmittedKey = key
	state.Record = nil
	state.Reason = ""

	record, err := s.store.FetchByKey(ctx, key)
	switch {
	case err == nil:
		state.Status = models.LookupFound
		state.Record = record
	case errors.Is(err, models.ErrNotFound):
		state.Status = models.LookupNotFound
	default:
		state.Status = models.LookupError
		state.Reason = err.Error()
		s.logger.Error("account lookup failed", slog.String("key", key), slog.Any("error", err))
	}

	s.auditLogger.LogLookup(pkglogger.AuditEvent{
		EventType:     "account_lookup",
		Identity:      pkglogger.SanitizedEmail(identity),
		Success:       state.Status == models.LookupFound,
		FailureReason: failureReason(state.Status),
		Metadata:      map[string]string{"key": key},
	})

	if state.Status == models.LookupError {
		return err
	}
	return nil
}

// View renders state without fetching
func (s *LookupService) View(state *models.LookupSessionState) LookupView {
	view := LookupView{
		Status: state.Status,
		Key:    state.LastSubmittedKey,
		Reason: state.Reason,
	}

	switch state.Status {
	case models.LookupFound:
		view.Message = "Account found."
		view.Fields = format.RenderRecord(state.Record)
	case models.LookupNotFound:
		view.Message = "No account matches key " + state.LastSubmittedKey + "."
	case models.LookupError:
		view.Message = "The account store could not be queried. Try again."
	case models.LookupSearching:
		view.Message = "Searching."
	default:
		view.Status = models.LookupNoQuery
		view.Key = ""
		view.Message = "Enter an account key (idcuenta) and search."
		if lister, ok := s.store.(KeyLister); ok {
			view.Keys = lister.Keys()
		}
	}

	return view
}

func failureReason(status models.LookupStatus) string {
	switch status {
	case models.LookupNotFound:
		return "not_found"
	case models.LookupError:
		return "store_error"
	default:
		return ""
	}
}
