package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/lucid/internal/apperr"
	"github.com/starford/lucid/internal/storage"
)

func TestOpenStoreSQLite(t *testing.T) {
	cfg := NewDefaultConfig().Store
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "lucid.db")

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close(ctx)

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	id, err := store.Insert(ctx, storage.Document{
		storage.FieldUser:      "ann",
		storage.FieldCreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.FindOne(ctx, id); err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := store.ParseID("not-an-id"); !errors.Is(err, apperr.ErrInvalidID) {
		t.Errorf("ParseID error = %v, want ErrInvalidID", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := NewDefaultConfig().Store
	cfg.Driver = "cassandra"

	store, err := openStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if store != nil {
		t.Errorf("store = %v, want nil", store)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
	if err := RunMCP(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
