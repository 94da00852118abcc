package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eomgitae/care-console/internal/history"
	"github.com/eomgitae/care-console/internal/history/sqlite"
	"github.com/eomgitae/care-console/internal/projectconfig"
)

// loadProjectConfig loads .care.yaml from the working directory upwards.
func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openHistory opens the SQLite history at path, or path from the project
// config when empty. With memory set, an in-memory store is returned and
// nothing is persisted.
func openHistory(ctx context.Context, cfg *projectconfig.ProjectConfig, path string, memory bool) (history.Store, error) {
	if memory {
		return history.NewMemoryStore(), nil
	}
	if path == "" {
		path = cfg.Paths.HistoryDB
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	return store, nil
}
