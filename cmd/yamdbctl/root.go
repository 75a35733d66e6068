package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/storage/postgres"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "YaMDb maintenance commands",
	Long: `yamdbctl manages the YaMDb database outside of the API server.

Subcommands:
  migrate  - apply, revert or inspect schema migrations
  import   - bulk-load the CSV fixtures`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/local.yml", "path to config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up after this long")
}

// connect loads the config and opens PostgreSQL; the in-memory driver has
// nothing to migrate or import into.
func connect(ctx context.Context) (*postgres.Storage, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.SetupLogger(cfg.Debug)
	if cfg.DB.Driver != config.DriverPostgres {
		return nil, nil, errors.New("yamdbctl requires the postgres driver")
	}
	db, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, log, nil
}
