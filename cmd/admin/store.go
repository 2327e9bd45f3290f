package main

import (
	"log/slog"

	"github.com/BradenHooton/accountdesk/internal/config"
	"github.com/BradenHooton/accountdesk/internal/database"
	"github.com/BradenHooton/accountdesk/internal/repositories"
	"github.com/BradenHooton/accountdesk/internal/services"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

// openCredentials connects to the credential database. Callers close the returned DB.
func openCredentials(logger *slog.Logger) (*database.DB, *services.AdminService, error) {
	cfg, err := config.LoadStores()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewConnection(&cfg.Database, "credentials", logger)
	if err != nil {
		return nil, nil, err
	}

	repo := repositories.NewCredentialRepository(db)
	admin := services.NewAdminService(repo, logger, pkglogger.NewAuditLogger(logger))
	return db, admin, nil
}
