package main

import (
	"context"
	"flag"
	"log"

	"yardops/internal/config"
	"yardops/internal/db"
	"yardops/internal/logging"
	"yardops/internal/migrate"
)

func main() {
	var (
		down    bool
		version bool
	)
	flag.BoolVar(&down, "down", false, "Roll back every migration")
	flag.BoolVar(&version, "version", false, "Print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalw("connect db", "error", err)
	}
	defer pool.Close()

	switch {
	case version:
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatalw("read version", "error", err)
		}
		logger.Infow("schema version", "version", v, "dirty", dirty)
	case down:
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatalw("roll back migrations", "error", err)
		}
		logger.Infow("migrations rolled back")
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalw("apply migrations", "error", err)
		}
		logger.Infow("migrations applied")
	}
}
