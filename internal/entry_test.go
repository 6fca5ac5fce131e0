package internal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/nordveil/ideaforge/internal/metadata"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	return cfg
}

func TestSetup_WiresComponents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := Setup(WithConfig(testConfig(t)), WithLogger(logger))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer app.Close()

	if app.Store == nil || app.Index == nil || app.Cache == nil || app.Docs == nil {
		t.Fatalf("incomplete wiring: %+v", app)
	}

	// End-to-end smoke test: create a document and resolve it through the
	// relation cache.
	rec := metadata.Record{
		Kind:        metadata.Kind,
		Status:      metadata.StatusDraft,
		CreatedDate: "2026-01-02",
		ID:          5,
	}
	ctx := context.Background()
	if _, err := app.Docs.Create(ctx, "a.md", rec, "body\n"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if paths := app.Cache.IDsToPaths(ctx, []int{5}); len(paths) != 1 || paths[0] != "a.md" {
		t.Errorf("paths = %v", paths)
	}
}

func TestSetup_RequiresConfig(t *testing.T) {
	if _, err := Setup(); err == nil {
		t.Error("expected error without config")
	}
}
