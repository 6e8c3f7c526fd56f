package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/lucid/internal/storage"
)

const storeOpenTimeout = 15 * time.Second

// openStore connects the document store selected by cfg.Driver.
func openStore(ctx context.Context, cfg StoreConfig) (storage.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
	defer cancel()

	switch cfg.Driver {
	case DriverMongo:
		s, err := storage.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := storage.OpenPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite, "":
		s, err := storage.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func closeStore(store storage.Provider, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.Error("store close error", slog.String("error", err.Error()))
	}
}
