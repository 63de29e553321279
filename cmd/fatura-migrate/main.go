// fatura-migrate applies the embedded SQLite migrations and exits. The
// server runs them on startup too; this tool exists for provisioning a
// database ahead of deployment.
package main

import (
	"os"

	"fatura/internal/cli"
	applog "fatura/internal/log"
	"fatura/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentStorage)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.DataBackend != "sqlite" {
		logger.Error("fatura-migrate requires DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
		logger.Error("Migrations failed", applog.FieldError, err, "db_path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Info("Migrations applied", "db_path", cfg.SQLiteDBPath)
}
