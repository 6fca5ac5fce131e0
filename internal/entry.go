package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nordveil/ideaforge/internal/docstore"
	"github.com/nordveil/ideaforge/internal/index"
	"github.com/nordveil/ideaforge/internal/relations"
	"github.com/nordveil/ideaforge/internal/storage"
)

// App bundles the wired application components for the command layer.
type App struct {
	Config *Config
	Logger *slog.Logger

	Store storage.Provider
	Index *index.DB
	Cache *relations.Cache
	Docs  *docstore.Service
}

// Setup builds the application from the given options: logger, vault
// storage, SQLite index, relation cache, and the document service on top.
// Callers must Close the returned App.
func Setup(opts ...Option) (*App, error) {
	app := &App{}
	for _, opt := range opts {
		opt(app)
	}

	if app.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.Config

	if app.Logger == nil {
		var w io.Writer = os.Stderr
		if cfg.App.LogFile != "" {
			w = &lumberjack.Logger{
				Filename:   cfg.App.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
			}
		}
		app.Logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(app.Logger)

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	app.Store = store

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	app.Index = db

	app.Cache = relations.NewCache(store, app.Logger)
	app.Docs = docstore.NewService(store, db, app.Cache, app.Logger)

	app.Logger.Debug("application wired",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return app, nil
}

// Close releases the application's resources.
func (a *App) Close() error {
	if a.Index != nil {
		return a.Index.Close()
	}
	return nil
}
