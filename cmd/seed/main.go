package main

import (
	"context"
	"log"

	"yardops/internal/config"
	"yardops/internal/db"
	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/migrate"
	"yardops/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalw("connect db", "error", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalw("apply migrations", "error", err)
	}
	data := seed.Dataset(domain.Today())
	if err := seed.Apply(ctx, pool, data); err != nil {
		logger.Fatalw("seed apply", "error", err)
	}

	logger.Infow("seed applied",
		"groups", len(data.Groups),
		"customers", len(data.Customers),
		"jobs", len(data.Jobs),
		"equipment", len(data.Equipment),
	)
}
