// Package archive opens the seed archive selected by configuration.
package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dkrando/internal/config"
	"github.com/cory-johannsen/dkrando/internal/storage"
	"github.com/cory-johannsen/dkrando/internal/storage/postgres"
	"github.com/cory-johannsen/dkrando/internal/storage/sqlite"
)

// Open returns the archive for cfg.Archive, or nil when the backend is
// "none". The close func releases the connection and is never nil.
//
// Precondition: cfg.Validate() returned nil.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Archive, func(), error) {
	switch cfg.Archive.Backend {
	case config.ArchivePostgres:
		repo, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("archive connected", zap.String("backend", "postgres"), zap.String("host", cfg.Database.Host))
		return repo, func() { _ = repo.Close() }, nil
	case config.ArchiveSQLite:
		store, err := sqlite.Open(cfg.Archive.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("archive opened", zap.String("backend", "sqlite"), zap.String("path", cfg.Archive.SQLitePath))
		return store, func() { _ = store.Close() }, nil
	}
	return nil, func() {}, nil
}
