// Command catalog-import replaces the shop catalog with the items of a JSON
// file or, when no file is given, with the configured remote catalog feed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fsanano/economy/internal/app"
	"fsanano/economy/internal/config"
	"fsanano/economy/internal/model"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "path to a JSON array of items; the catalog feed is used when empty")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := app.NewLogger(cfg.Log)

	// 2. Cancel on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, file); err != nil {
		log.Error("catalog import failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, file string) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var items []model.Item
	switch {
	case file != "":
		items, err = readItems(file)
	case a.Feed != nil:
		items, err = a.Feed.Catalog(ctx)
	default:
		err = errors.New("no -file given and CATALOG_FEED_URL is not set")
	}
	if err != nil {
		return err
	}

	saved, err := a.Economy.ReplaceCatalog(ctx, items)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				log.Warn("invalid item", slog.String("field", fe.Field), slog.String("message", fe.Message))
			}
		}
		return err
	}

	log.Info("catalog imported", slog.Int("items", len(saved)))
	return nil
}

func readItems(path string) ([]model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}
