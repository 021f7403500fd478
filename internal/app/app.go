// Package app wires configuration, storage and services together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"fsanano/economy/internal/config"
	"fsanano/economy/internal/repository"
	"fsanano/economy/internal/repository/filestore"
	"fsanano/economy/internal/repository/postgres"
	"fsanano/economy/internal/service"
	"fsanano/economy/internal/service/catalogfeed"
)

type App struct {
	Store   repository.Store
	Ledger  *service.LedgerService
	Economy *service.EconomyService
	// Feed is nil when no catalog feed is configured.
	Feed *catalogfeed.Client
}

// New opens the configured storage backend and builds the services on it.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, opts ...service.Option) (*App, error) {
	const op = "app.New"

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ledger := service.NewLedgerService(log, store, cfg.Ledger.BatchConcurrency)
	a := &App{
		Store:   store,
		Ledger:  ledger,
		Economy: service.NewEconomyService(log, store, ledger, opts...),
	}

	if cfg.HasCatalogFeed() {
		a.Feed = catalogfeed.NewClient(catalogfeed.Config{
			APIURL:   cfg.CatalogFeed.APIURL,
			ClientID: cfg.CatalogFeed.ClientID,
			APIKey:   cfg.CatalogFeed.APIKey,
		})
	}

	log.Info("application initialized",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("catalog_feed", a.Feed != nil),
	)

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverFile:
		store, err := filestore.Open(log, cfg.Storage.AccountsPath, cfg.Storage.CatalogPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) Close() error {
	return a.Store.Close()
}
