package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/config"
	"github.com/BradenHooton/accountdesk/internal/database"
	"github.com/BradenHooton/accountdesk/internal/handlers"
	middlewareCustom "github.com/BradenHooton/accountdesk/internal/middleware"
	"github.com/BradenHooton/accountdesk/internal/repositories"
	"github.com/BradenHooton/accountdesk/internal/routes"
	"github.com/BradenHooton/accountdesk/internal/services"
	"github.com/BradenHooton/accountdesk/internal/session"
	pkgauth "github.com/BradenHooton/accountdesk/pkg/auth"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

// AccountsTable is the record table SeedAccounts fills for the test server
const AccountsTable = "cuentas_test"

// TestServer wraps httptest.Server with the production router over a real database
type TestServer struct {
	Server      *httptest.Server
	DB          *database.DB
	Config      *config.Config
	Credentials *repositories.CredentialRepository
	Admin       *services.AdminService
	Sessions    *session.Store
}

// NewTestServer builds the full middleware and route stack. Credentials and
// account records share db; the shared secret is verified against a bcrypt hash.
func NewTestServer(db *database.DB, secret string) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	hash, err := pkgauth.HashSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{
			AccessSecretHash:    hash,
			SessionSecret:       "integration-secret-32-characters!",
			SessionIdleTimeout:  time.Hour,
			SessionMaxAge:       time.Hour,
			MaxFailedAttempts:   5,
			LockoutDuration:     30 * time.Second,
			LoginRequestsPerMin: 100,
		},
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
		Records: config.RecordsConfig{
			Source:     config.RecordsSourcePostgres,
			Table:      AccountsTable,
			KeyColumn:  "idcuenta",
			DateMarker: "fecha",
		},
	}

	auditLogger := pkglogger.NewAuditLogger(logger)
	credRepo := repositories.NewCredentialRepository(db)
	accountRepo := repositories.NewAccountRepository(db, cfg.Records.Table, cfg.Records.KeyColumn, cfg.Records.DateMarker, logger)

	verifier, err := services.NewSecretVerifier(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}
	lockout := services.NewLockoutPolicy(services.LockoutConfig{
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutDuration:   cfg.Auth.LockoutDuration,
	}, logger)

	authService := services.NewAuthService(credRepo, verifier, lockout, auth.NoDelay(), logger, auditLogger)
	lookupService := services.NewLookupService(accountRepo, logger, auditLogger)
	adminService := services.NewAdminService(credRepo, logger, auditLogger)

	store := session.NewStore(cfg.Auth.SessionIdleTimeout)
	sessions := auth.NewSessionManager(
		auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionMaxAge),
		store,
		auth.CookieConfig{SameSite: "strict"},
		logger,
	)
	ipConfig, _ := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, routes.Handlers{
		Health:   handlers.NewHealthHandler(map[string]handlers.HealthCheck{"credentials": db.HealthCheck}),
		Auth:     handlers.NewAuthHandler(authService, sessions, ipConfig, logger),
		Lookup:   handlers.NewLookupHandler(lookupService, logger),
		Activity: handlers.NewActivityHandler(adminService, logger),
	}, sessions, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Auth.LoginRequestsPerMin,
		IPConfig:          ipConfig,
	})

	return &TestServer{
		Server:      httptest.NewServer(r),
		DB:          db,
		Config:      cfg,
		Credentials: credRepo,
		Admin:       adminService,
		Sessions:    store,
	}, nil
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Browser is an HTTP client with its own cookie jar, standing in for one operator's browser
type Browser struct {
	base   *url.URL
	client *http.Client
}

// NewBrowser creates a client with an empty cookie jar
func (ts *TestServer) NewBrowser() (*Browser, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(ts.Server.URL)
	if err != nil {
		return nil, err
	}
	return &Browser{base: base, client: &http.Client{Jar: jar}}, nil
}

// CSRFToken returns the CSRF cookie the server issued, if any
func (b *Browser) CSRFToken() string {
	for _, c := range b.client.Jar.Cookies(b.base) {
		if c.Name == auth.CSRFCookieName {
			return c.Value
		}
	}
	return ""
}

// Request sends body as JSON. State-changing methods echo the CSRF cookie in the header.
func (b *Browser) Request(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, b.base.String()+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth.IsStateChangingMethod(method) {
		req.Header.Set(auth.CSRFHeaderName, b.CSRFToken())
	}

	return b.client.Do(req)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorCode extracts the error code from an error response
func GetErrorCode(resp *http.Response) (string, error) {
	var errResp pkghttp.ErrorResponse
	if err := ParseJSONResponse(resp, &errResp); err != nil {
		return "", err
	}
	return errResp.Error, nil
}
