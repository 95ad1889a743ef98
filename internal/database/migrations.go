package database

import (
	"database/sql"
	"fmt"

	"catalog/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func init() {
	goose.SetBaseFS(migrations.FS)
}

func setDialect() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	if err := setDialect(); err != nil {
		return err
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("Checking for pending migrations...", zap.Int64("current_version", current))

	if err := goose.Up(db, "."); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// RollbackMigration reverts the most recently applied migration
func RollbackMigration(db *sql.DB, logger *zap.Logger) error {
	if err := setDialect(); err != nil {
		return err
	}

	if err := goose.Down(db, "."); err != nil {
		logger.Error("Failed to roll back migration", zap.Error(err))
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	logger.Info("Rolled back one migration")
	return nil
}

// GetMigrationStatus prints the status of every known migration
func GetMigrationStatus(db *sql.DB) error {
	if err := setDialect(); err != nil {
		return err
	}

	return goose.Status(db, ".")
}
