package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/BradenHooton/accountdesk/internal/services"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
)

// LookupServiceInterface defines the lookup state machine used by the handler
type LookupServiceInterface interface {
	Search(ctx context.Context, state *models.LookupSessionState, key, identity string) error
	View(state *models.LookupSessionState) services.LookupView
}

// LookupHandler serves account lookups for authenticated sessions
type LookupHandler struct {
	service LookupServiceInterface
	logger  *slog.Logger
}

// NewLookupHandler creates a new LookupHandler
func NewLookupHandler(service LookupServiceInterface, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{service: service, logger: logger}
}

// LookupRequest is the explicit search trigger
type LookupRequest struct {
	Key string `json:"key" validate:"max=64"`
}

// Search handles POST /lookup. NotFound is answered with 200 and a not_found view.
func (h *LookupHandler) Search(w http.ResponseWriter, r *http.Request) {
	s := auth.GetSessionFromContext(r)
	if s == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req LookupRequest
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

	if s.Principal == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	if err := h.service.Search(r.Context(), &s.Lookup, req.Key, s.Principal.Email); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.service.View(&s.Lookup))
}

// Current handles GET /lookup and never queries the store
func (h *LookupHandler) Current(w http.ResponseWriter, r *http.Request) {
	s := auth.GetSessionFromContext(r)
	if s == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	s.Lock()
	view := h.service.View(&s.Lookup)
	s.Unlock()

	pkghttp.WriteJSON(w, http.StatusOK, view)
}
