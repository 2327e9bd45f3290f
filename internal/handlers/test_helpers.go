package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/models"
	"github.com/BradenHooton/accountdesk/internal/services"
	"github.com/BradenHooton/accountdesk/internal/session"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewTestSession starts an anonymous session in a throwaway store
func NewTestSession(t *testing.T) *session.Session {
	s, err := session.NewStore(time.Hour).Create()
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return s
}

// NewSignedInSession starts a session that has already passed the gate
func NewSignedInSession(t *testing.T, email string) *session.Session {
	s := NewTestSession(t)
	s.SignIn(&models.AuthenticatedSession{Email: email, AuthenticatedAt: time.Now(), LoginCount: 1})
	return s
}

// WithSessionContext attaches s to the request context the way SessionManager does
func WithSessionContext(req *http.Request, s *session.Session) *http.Request {
	return req.WithContext(auth.WithSession(req.Context(), s))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	AttemptFunc func(ctx context.Context, state *models.AuthAttemptState, identity, secret string, meta models.ClientMeta) (*models.AuthenticatedSession, error)

	mu    sync.Mutex
	Metas []models.ClientMeta
}

func (m *MockAuthService) Attempt(ctx context.Context, state *models.AuthAttemptState, identity, secret string, meta models.ClientMeta) (*models.AuthenticatedSession, error) {
	m.mu.Lock()
	m.Metas = append(m.Metas, meta)
	m.mu.Unlock()

	if m.AttemptFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.AttemptFunc(ctx, state, identity, secret, meta)
}

// MockSessionIssuer implements SessionIssuer for testing
type MockSessionIssuer struct {
	IssueErr error
	Issued   int
	Ended    int
}

func (m *MockSessionIssuer) Issue(w http.ResponseWriter, s *session.Session) error {
	if m.IssueErr != nil {
		return m.IssueErr
	}
	m.Issued++
	return nil
}

func (m *MockSessionIssuer) End(w http.ResponseWriter, s *session.Session) {
	m.Ended++
}

// MockLookupService implements LookupServiceInterface for testing
type MockLookupService struct {
	SearchFunc func(ctx context.Context, state *models.LookupSessionState, key, identity string) error
	ViewFunc   func(state *models.LookupSessionState) services.LookupView
}

func (m *MockLookupService) Search(ctx context.Context, state *models.LookupSessionState, key, identity string) error {
	if m.SearchFunc == nil {
		return nil
	}
	return m.SearchFunc(ctx, state, key, identity)
}

func (m *MockLookupService) View(state *models.LookupSessionState) services.LookupView {
	if m.ViewFunc == nil {
		return services.LookupView{Status: state.Status, Key: state.LastSubmittedKey}
	}
	return m.ViewFunc(state)
}

// MockActivityService implements ActivityServiceInterface for testing
type MockActivityService struct {
	ActivityFunc func(ctx context.Context, identity string, limit int) (*services.OperatorActivity, error)
}

func (m *MockActivityService) Activity(ctx context.Context, identity string, limit int) (*services.OperatorActivity, error) {
	if m.ActivityFunc == nil {
		return &services.OperatorActivity{Email: identity, Recent: []services.ActivityEntry{}}, nil
	}
	return m.ActivityFunc(ctx, identity, limit)
}
