package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"yamdb/proj/internal/config"
	"yamdb/proj/internal/lib/logger"
	"yamdb/proj/internal/services"
	"yamdb/proj/internal/storage/inmemory"
	"yamdb/proj/internal/storage/postgres"
	pgmodels "yamdb/proj/internal/storage/postgres/models"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)

	storage, closeStorage, err := openStorage(cfg, log)
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.DB.Driver, "errMsg", err.Error())
		os.Exit(1)
	}
	defer closeStorage()

	svcs := services.New(log, cfg, storage, services.NewMailer(cfg))
	app := NewApplication(cfg, log, svcs)
	if err := app.serve(); err != nil {
		log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}
}

func openStorage(cfg *config.Config, log *slog.Logger) (services.Storage, func(), error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on exit")
		return services.InMemoryStorage(inmemory.New()), func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.DB.Dsn, cfg.DB.MaxConns, cfg.DB.MaxConnIdleTime)
	if err != nil {
		return services.Storage{}, nil, err
	}
	log.Info("database connection established")
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, "up"); err != nil {
			db.Close()
			return services.Storage{}, nil, err
		}
		log.Info("migrations applied")
	}
	return services.PostgresStorage(pgmodels.New(db)), db.Close, nil
}
