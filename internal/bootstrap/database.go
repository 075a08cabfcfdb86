package bootstrap

import (
	"fmt"

	"log/slog"

	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/config"
	"github.com/courseflow/courseflow-server/pkg/database"
)

// ApplyDatabaseMigrations runs schema migrations when enabled via configuration.
func ApplyDatabaseMigrations(db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.RunMigrations {
		logger.Info("database migrations skipped", slog.String("env_var", "COURSEFLOW_DB_RUN_MIGRATIONS=false"))
		return nil
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("database migrations applied successfully")
	return nil
}
