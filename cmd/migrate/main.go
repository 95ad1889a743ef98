package main

import (
	"fmt"
	"os"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/logger"

	"go.uber.org/zap"
)

const usage = `usage: migrate <command>

commands:
  up      apply all pending migrations
  down    roll back the most recent migration
  status  print the state of every migration`

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer dbService.Close()

	db := dbService.DB()

	switch os.Args[1] {
	case "up":
		err = database.RunMigrations(db, log)
	case "down":
		err = database.RollbackMigration(db, log)
	case "status":
		err = database.GetMigrationStatus(db)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}
