package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/platform/migrations"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/platform/sqlite"
	"github.com/phrazzld/scry-study/internal/store"
)

// stores bundles the persistence layer selected by the database driver.
type stores struct {
	db      *sql.DB
	records store.RecordStore
	catalog store.CatalogStore
	reviews store.ReviewLogStore
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case migrations.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return &stores{
			db:      db,
			records: postgres.NewPostgresRecordStore(db, logger),
			catalog: postgres.NewPostgresCatalogStore(db, logger),
			reviews: postgres.NewPostgresReviewLogStore(db, logger),
		}, nil

	case migrations.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return &stores{
			db:      db.DB,
			records: sqlite.NewSQLiteRecordStore(db, logger),
			catalog: sqlite.NewSQLiteCatalogStore(db, logger),
			reviews: sqlite.NewSQLiteReviewLogStore(db, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (s *stores) Close() error {
	return s.db.Close()
}
