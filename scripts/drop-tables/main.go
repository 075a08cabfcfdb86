package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/pkg/config"
	"github.com/courseflow/courseflow-server/pkg/logger"
)

// Tables are dropped children-first so foreign keys never block the drop.
var tables = []string{
	"test_submissions",
	"tests",
	"progress",
	"videos",
	"courses",
	"users",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	fmt.Printf("This will DROP ALL TABLES in %s. Type 'yes' to continue: ", cfg.Database.Name)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(answer) != "yes" {
		fmt.Println("Aborted.")
		return
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q CASCADE`, table)).Error; err != nil {
			appLogger.Error("Failed to drop table", slog.String("table", table), slog.String("error", err.Error()))
			os.Exit(1)
		}
		appLogger.Info("Dropped table", slog.String("table", table))
	}

	appLogger.Info("All tables dropped")
}
