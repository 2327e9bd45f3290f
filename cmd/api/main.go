package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/background"
	"github.com/BradenHooton/accountdesk/internal/config"
	"github.com/BradenHooton/accountdesk/internal/database"
	"github.com/BradenHooton/accountdesk/internal/handlers"
	middlewareCustom "github.com/BradenHooton/accountdesk/internal/middleware"
	"github.com/BradenHooton/accountdesk/internal/repositories"
	"github.com/BradenHooton/accountdesk/internal/routes"
	"github.com/BradenHooton/accountdesk/internal/services"
	"github.com/BradenHooton/accountdesk/internal/session"
	pkghttp "github.com/BradenHooton/accountdesk/pkg/http"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("records_source", cfg.Records.Source))

	// Credential store
	credDB, err := database.NewConnection(&cfg.Database, "credentials", logger)
	if err != nil {
		logger.Error("failed to connect to credential database", slog.Any("error", err))
		os.Exit(1)
	}
	defer credDB.Close()

	credRepo := repositories.NewCredentialRepository(credDB)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := credRepo.EnsureSchema(ctx); err != nil {
		// retried lazily on first use
		logger.Warn("credential schema not provisioned at startup", slog.Any("error", err))
	}
	cancel()

	healthChecks := map[string]handlers.HealthCheck{
		"credentials": credDB.HealthCheck,
	}

	// Record store
	var records services.AccountStore
	switch cfg.Records.Source {
	case config.RecordsSourcePostgres:
		recordsDB, err := database.NewConnection(&cfg.Records.Database, "records", logger)
		if err != nil {
			logger.Error("failed to connect to records database", slog.Any("error", err))
			os.Exit(1)
		}
		defer recordsDB.Close()

		records = repositories.NewAccountRepository(recordsDB, cfg.Records.Table, cfg.Records.KeyColumn, cfg.Records.DateMarker, logger)
		healthChecks["records"] = recordsDB.HealthCheck
	default:
		logger.Warn("serving built-in demo account records; set RECORDS_SOURCE=postgres for real data")
		records = repositories.NewDemoAccountRepository(cfg.Records.KeyColumn, cfg.Records.DateMarker, repositories.DemoAccountRows())
	}

	// Security services
	auditLogger := pkglogger.NewAuditLogger(logger)

	verifier, err := services.NewSecretVerifier(cfg.Auth, logger)
	if err != nil {
		logger.Error("failed to configure secret verification", slog.Any("error", err))
		os.Exit(1)
	}

	lockout := services.NewLockoutPolicy(services.LockoutConfig{
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockoutDuration:   cfg.Auth.LockoutDuration,
	}, logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	ipConfig, invalid := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	for _, cidr := range invalid {
		logger.Warn("ignoring invalid TRUSTED_PROXIES entry", slog.String("cidr", cidr))
	}

	// Sessions
	sessionStore := session.NewStore(cfg.Auth.SessionIdleTimeout).WithMaxSessions(cfg.Auth.SessionMaxLive)
	sweeper := background.NewSweepManager(sessionStore, logger, cfg.Auth.SessionSweepPeriod)
	sessions := auth.NewSessionManager(
		auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionMaxAge),
		sessionStore,
		auth.CookieConfig{Secure: cfg.Auth.CookieSecure, SameSite: "strict"},
		logger,
	)

	// Initialize services
	authService := services.NewAuthService(credRepo, verifier, lockout, timingDelay, logger, auditLogger)
	lookupService := services.NewLookupService(records, logger, auditLogger)
	adminService := services.NewAdminService(credRepo, logger, auditLogger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(router, routes.Handlers{
		Health:   handlers.NewHealthHandler(healthChecks),
		Auth:     handlers.NewAuthHandler(authService, sessions, ipConfig, logger),
		Lookup:   handlers.NewLookupHandler(lookupService, logger),
		Activity: handlers.NewActivityHandler(adminService, logger),
	}, sessions, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Auth.LoginRequestsPerMin,
		IPConfig:          ipConfig,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweeper.Start(sweepCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newLogger builds the JSON logger at the configured level
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
