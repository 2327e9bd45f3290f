package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/BradenHooton/accountdesk/internal/services"
	"github.com/BradenHooton/accountdesk/internal/session"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
)

// AuthServiceInterface defines the credential gate used by the handler
type AuthServiceInterface interface {
	Attempt(ctx context.Context, state *models.AuthAttemptState, identity, secret string, meta models.ClientMeta) (*models.AuthenticatedSession, error)
}

// SessionIssuer writes and clears the session cookies
type SessionIssuer interface {
	Issue(w http.ResponseWriter, s *session.Session) error
	End(w http.ResponseWriter, s *session.Session)
}

// AuthHandler handles the login gate
type AuthHandler struct {
	service  AuthServiceInterface
	sessions SessionIssuer
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, sessions SessionIssuer, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email  string `json:"email" validate:"required,contains=@,max=254"`
	Secret string `json:"secret" validate:"required,max=256"`
}

// SessionResponse describes the caller's session
type SessionResponse struct {
	Authenticated    bool       `json:"authenticated"`
	Email            string     `json:"email,omitempty"`
	LoginCount       int64      `json:"login_count,omitempty"`
	AuthenticatedAt  *time.Time `json:"authenticated_at,omitempty"`
	FailedAttempts   int        `json:"failed_attempts"`
	LockedForSeconds int        `json:"locked_for_seconds,omitempty"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	s := auth.GetSessionFromContext(r)
	if s == nil {
		pkghttp.WriteInternalError(w, "Session unavailable")
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.Authenticated() {
		pkghttp.WriteJSON(w, http.StatusOK, newSessionResponse(s, time.Now()))
		return
	}

	meta := models.ClientMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: pkghttp.UserAgent(r),
		SessionID: s.ID,
	}

	principal, err := h.service.Attempt(r.Context(), &s.Auth, req.Email, req.Secret, meta)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	s.SignIn(principal)
	if err := h.sessions.Issue(w, s); err != nil {
		h.logger.Error("failed to issue session token", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, newSessionResponse(s, principal.AuthenticatedAt))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := auth.GetSessionFromContext(r)
	if s == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.Lock()
	s.Principal = nil
	s.Lookup.Reset()
	s.Unlock()

	h.sessions.End(w, s)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s := auth.GetSessionFromContext(r)
	if s == nil {
		pkghttp.WriteInternalError(w, "Session unavailable")
		return
	}

	s.Lock()
	resp := newSessionResponse(s, time.Now())
	s.Unlock()

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// newSessionResponse must be called with s locked
func newSessionResponse(s *session.Session, now time.Time) SessionResponse {
	resp := SessionResponse{FailedAttempts: s.Auth.FailedCount}

	if locked, remaining := s.Auth.LockedAt(now); locked {
		resp.LockedForSeconds = (&models.LockedError{Remaining: remaining}).RemainingSeconds()
	}

	if p := s.Principal; p != nil {
		resp.Authenticated = true
		resp.Email = p.Email
		resp.LoginCount = p.LoginCount
		at := p.AuthenticatedAt
		resp.AuthenticatedAt = &at
	}
	return resp
}

// writeServiceError maps the gate and lookup error taxonomy to responses
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if services.IsClientError(err) {
		logger.Debug("request rejected", slog.String("reason", err.Error()))
	} else {
		logger.Error("service error", slog.Any("error", err))
	}

	var locked *models.LockedError
	switch {
	case errors.As(err, &locked):
		pkghttp.WriteLocked(w, "Too many failed attempts. Try again later.", locked.RemainingSeconds())
	case errors.Is(err, models.ErrInvalidInput):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrStore):
		pkghttp.WriteStoreError(w, "The data store could not be reached", err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
