package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

func main() {
	// Parse flags
	var (
		configPath string
		logLevel   string
		confirm    bool
	)

	flag.StringVar(&configPath, "config", "", "Path to a config file (default: search ./config.toml, ./config, /etc/invoicer)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Confirm destructive commands")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// Load configuration
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if !cfg.Database.Enabled {
		log.Warn("database.enabled is false; the server will not use this schema")
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
		log.Info("Schema is up to date")

	case "down":
		if !confirm {
			log.Fatal("Down drops every stored invoice. Use 'migrate -confirm down' to confirm.")
		}
		if err := db.DropAll(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}
		log.Info("Schema dropped")

	case "status":
		for _, m := range models.AllModels() {
			log.Info("Table status",
				zap.String("model", fmt.Sprintf("%T", m)),
				zap.Bool("exists", db.DB.Migrator().HasTable(m)),
			)
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Invoicer Database Migration Tool

Usage:
  migrate [flags] <command>

Commands:
  up                    Create or update the invoice tables
  down                  Drop the invoice tables (requires -confirm)
  status                Show which tables exist

Flags:
  -config string        Path to a config file
  -log-level string     Log level: debug, info, warn, error (default: info)
  -confirm              Confirm destructive commands

Environment Variables:
  INVOICER_DATABASE_DRIVER, INVOICER_DATABASE_HOST, INVOICER_DATABASE_PORT,
  INVOICER_DATABASE_USER, INVOICER_DATABASE_PASSWORD, INVOICER_DATABASE_DBNAME,
  INVOICER_DATABASE_SQLITE_PATH

Examples:
  # Create the schema
  migrate up

  # Drop it again
  migrate -confirm down`)
}
