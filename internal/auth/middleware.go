package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/accountdesk/internal/session"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// SessionContextKey is the key for storing the current session in context
	SessionContextKey contextKey = "session"
)

// SessionManager binds requests to server-side sessions through the session cookie
type SessionManager struct {
	tm      *TokenManager
	store   *session.Store
	cookies CookieConfig
	logger  *slog.Logger
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(tm *TokenManager, store *session.Store, cookies CookieConfig, logger *slog.Logger) *SessionManager {
	return &SessionManager{tm: tm, store: store, cookies: cookies, logger: logger}
}

// Middleware loads the session named by the cookie, or starts a fresh anonymous
// one when the cookie is absent, invalid or expired. Sessions start on safe
// methods only; a state-changing request without one is left to RequireCSRF.
func (sm *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := sm.load(r)
		if s == nil {
			if IsStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			var err error
			s, err = sm.store.Create()
			if errors.Is(err, session.ErrSessionLimit) {
				sm.logger.Warn("refusing new session, store is full", slog.Int("live_sessions", sm.store.Len()))
				pkghttp.WriteError(w, http.StatusServiceUnavailable, "session_limit", "Too many active sessions, try again later")
				return
			}
			if err != nil {
				sm.logger.Error("failed to create session", slog.Any("error", err))
				pkghttp.WriteInternalError(w, "unable to start session")
				return
			}
			if err := sm.Issue(w, s); err != nil {
				sm.logger.Error("failed to issue session token", slog.Any("error", err))
				pkghttp.WriteInternalError(w, "unable to start session")
				return
			}
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (sm *SessionManager) load(r *http.Request) *session.Session {
	tokenString, err := GetSessionCookie(r)
	if err != nil || tokenString == "" {
		return nil
	}

	claims, err := sm.tm.ValidateToken(tokenString)
	if err != nil {
		sm.logger.Debug("discarding invalid session token", slog.Any("error", err))
		return nil
	}

	s, ok := sm.store.Get(claims.ID)
	if !ok {
		return nil
	}
	return s
}

// Issue writes the cookies of s. Called on session start and after sign-in.
func (sm *SessionManager) Issue(w http.ResponseWriter, s *session.Session) error {
	token, err := sm.tm.GenerateSessionToken(s.ID, s.Principal)
	if err != nil {
		return err
	}
	SetSessionCookies(w, token, s.CSRFToken, sm.tm.MaxAge(), sm.cookies)
	return nil
}

// End discards the session and clears its cookies
func (sm *SessionManager) End(w http.ResponseWriter, s *session.Session) {
	sm.store.Delete(s.ID)
	ClearSessionCookies(w, sm.cookies)
}

// RequireCSRF rejects state-changing requests whose X-CSRF-Token does not match the session
func (sm *SessionManager) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsStateChangingMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		s := GetSessionFromContext(r)
		if s == nil || !ValidCSRFToken(s.CSRFToken, PresentedCSRFToken(r)) {
			sm.logger.Warn("CSRF token validation failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
			pkghttp.WriteForbidden(w, "CSRF token missing or invalid")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuthenticated rejects requests from sessions that have not passed the gate
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSessionFromContext(r)
		if s == nil {
			pkghttp.WriteUnauthorized(w, "authentication required")
			return
		}

		s.Lock()
		authenticated := s.Authenticated()
		s.Unlock()

		if !authenticated {
			pkghttp.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionFromContext extracts the session from request context
func GetSessionFromContext(r *http.Request) *session.Session {
	s, ok := r.Context().Value(SessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return s
}

// WithSession returns a copy of ctx carrying s, used by tests
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, s)
}
