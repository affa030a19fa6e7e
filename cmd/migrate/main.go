package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"reportanalysis/internal/config"
	"reportanalysis/internal/logger"
	pgstore "reportanalysis/internal/store/postgres"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	m, err := pgstore.NewMigrator(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("failed to close migrator", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if verr == nil {
			log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		err = verr
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Error("migration command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up        Apply all pending migrations
  down      Roll back all migrations
  version   Show the current migration version

Flags:
  -log-level string   Log level (default "info")

Environment:
  DATABASE_URL        PostgreSQL connection string`)
}
