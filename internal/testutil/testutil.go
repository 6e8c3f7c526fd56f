// Package testutil provides shared test helpers for setting up entry stores.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/lucid/internal/storage"
)

// TestStore creates a temporary SQLite entry store that is automatically cleaned up.
func TestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "lucid-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}
