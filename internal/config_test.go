package internal

import (
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/nordveil/ideaforge/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate_MissingPaths(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = ""
	if cfg.Validate() == nil {
		t.Error("empty vault path accepted")
	}

	cfg = NewDefaultConfig()
	cfg.SQLite.Path = ""
	if cfg.Validate() == nil {
		t.Error("empty sqlite path accepted")
	}
}

func TestLoadWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_VAULT_DIR", "/srv/vault")
	file := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "app:\n  log_level: DEBUG\nvault:\n  path: ${TEST_VAULT_DIR}\nsqlite:\n  path: ./idx.db\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(file, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Path != "/srv/vault" {
		t.Errorf("vault path = %q", cfg.Vault.Path)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
}

func TestLoadIfExists_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.Vault.Path != "./vault" {
		t.Errorf("defaults disturbed: %q", cfg.Vault.Path)
	}
}
