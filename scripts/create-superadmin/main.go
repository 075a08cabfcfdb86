package main

import (
	"context"
	"log"
	"os"

	"log/slog"

	"github.com/courseflow/courseflow-server/internal/bootstrap"
	"github.com/courseflow/courseflow-server/pkg/config"
	"github.com/courseflow/courseflow-server/pkg/database"
	"github.com/courseflow/courseflow-server/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db, appLogger)

	if err := bootstrap.EnsureDefaultSuperAdmin(db, appLogger); err != nil {
		appLogger.Error("Failed to ensure super admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("Super admin account is ready")
}
