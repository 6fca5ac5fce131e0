// Package testutil provides shared test helpers for setting up vaults and
// index databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/nordveil/ideaforge/internal/index"
	"github.com/nordveil/ideaforge/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ideaforge-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
