package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/services"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
)

// ActivityServiceInterface defines the activity read used by the handler.
type ActivityServiceInterface interface {
	Activity(ctx context.Context, identity string, limit int) (*services.OperatorActivity, error)
}

// ActivityHandler serves the signed-in operator's own login history.
type ActivityHandler struct {
	service ActivityServiceInterface
	logger  *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(service ActivityServiceInterface, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, logger: logger}
}

// GetActivity handles GET /activity
// Accepts optional query param ?limit=N (1–50, default 20).
func (h *ActivityHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	s := auth.GetSessionFromContext(r)
	if s == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}
	s.Lock()
	principal := s.Principal
	s.Unlock()
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	activity, err := h.service.Activity(r.Context(), principal.Email, limit)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, activity)
}
