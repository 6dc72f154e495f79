// Package app assembles the gateway, stores and services shared by the
// binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yardops/internal/config"
	"yardops/internal/db"
	"yardops/internal/domain"
	"yardops/internal/gateway"
	"yardops/internal/gateway/memory"
	"yardops/internal/httpserver"
	"yardops/internal/logging"
	"yardops/internal/metrics"
	"yardops/internal/migrate"
	"yardops/internal/notify"
	customerrepo "yardops/internal/repository/customer"
	equipmentrepo "yardops/internal/repository/equipment"
	grouprepo "yardops/internal/repository/group"
	jobrepo "yardops/internal/repository/job"
	"yardops/internal/seed"
	"yardops/internal/service/grouping"
	"yardops/internal/service/insights"
	"yardops/internal/service/ledger"
	"yardops/internal/service/schedule"
	"yardops/internal/store"
)

type App struct {
	Pool     *pgxpool.Pool
	Gateway  gateway.Gateway
	Metrics  *metrics.Metrics
	Stores   *store.Stores
	Feed     *notify.Feed
	Schedule *schedule.Service
	Groups   *grouping.Service
	Ledger   *ledger.Service
	Insights *insights.Engine
}

// Build connects the configured backend and wires every service. The
// postgres backend is migrated before use; the memory backend starts with
// the demo dataset. Stores are not loaded yet; call Load.
func Build(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (*App, error) {
	logger = logging.OrDiscard(logger)
	a := &App{Metrics: metrics.New()}

	var gw gateway.Gateway
	switch cfg.Backend {
	case config.BackendMemory:
		mem := memory.New()
		seed.Load(mem, seed.Dataset(domain.Today()))
		logger.Infow("using in-memory backend with demo data")
		gw = mem
	default:
		pool, err := db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		a.Pool = pool
		gw = gateway.New(gateway.Repos{
			Customers: customerrepo.NewPostgres(pool, logger),
			Jobs:      jobrepo.NewPostgres(pool, logger),
			Groups:    grouprepo.NewPostgres(pool, logger),
			Equipment: equipmentrepo.NewPostgres(pool),
		})
	}
	a.Gateway = gateway.Instrument(gw, a.Metrics)

	a.Stores = store.New(a.Gateway, logger)
	a.Feed = notify.NewFeed(cfg.NotificationHistory, logger, a.Metrics)
	a.Schedule = schedule.New(a.Gateway, a.Stores, a.Feed, logger)
	a.Groups = grouping.New(a.Gateway, a.Stores, a.Feed, logger)
	a.Ledger = ledger.New(a.Gateway, a.Stores, a.Feed, logger)
	a.Insights = insights.NewEngine(a.Stores, a.Metrics, logger)
	return a, nil
}

// Load fetches every collection once.
func (a *App) Load(ctx context.Context) error {
	return a.Stores.RefreshAll(ctx)
}

// Deps exposes the services to the HTTP layer.
func (a *App) Deps() httpserver.Deps {
	deps := httpserver.Deps{
		Schedule:      a.Schedule,
		Groups:        a.Groups,
		Ledger:        a.Ledger,
		Insights:      a.Insights,
		Notifications: a.Feed,
		Customers:     a.Stores.Customers,
		Stores:        a.Stores,
		Metrics:       a.Metrics,
	}
	if a.Pool != nil {
		deps.DB = a.Pool
	}
	return deps
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
