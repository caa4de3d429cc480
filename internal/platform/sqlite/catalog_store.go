package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// SQLiteCatalogStore implements store.CatalogStore on SQLite.
type SQLiteCatalogStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteCatalogStore creates a catalog store on db.
func NewSQLiteCatalogStore(db *sqlx.DB, logger *slog.Logger) *SQLiteCatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteCatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

var _ store.CatalogStore = (*SQLiteCatalogStore)(nil)

// ListCards implements store.CatalogStore.ListCards
func (s *SQLiteCatalogStore) ListCards(ctx context.Context, unitID string) ([]domain.CardID, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM content_units WHERE id = ?`, unitID); err != nil {
		return nil, store.NewStoreError("content_unit", "list_cards", "query failed", MapError(err))
	}
	if count == 0 {
		return nil, store.ErrUnitNotFound
	}

	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		`SELECT card_key FROM catalog_cards WHERE unit_id = ? ORDER BY position`, unitID)
	if err != nil {
		return nil, store.NewStoreError("content_unit", "list_cards", "query failed", MapError(err))
	}

	ids := make([]domain.CardID, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, domain.CardID{UnitID: unitID, Key: key})
	}
	return ids, nil
}

// UpsertUnit implements store.CatalogStore.UpsertUnit
func (s *SQLiteCatalogStore) UpsertUnit(ctx context.Context, unit *domain.ContentUnit) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if unit == nil {
		return fmt.Errorf("%w: nil content unit", store.ErrInvalidEntity)
	}
	if err := unit.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	now := time.Now().UnixMicro()
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_units (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
			unit.ID, unit.Title, now, now)
		if err != nil {
			return MapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_cards WHERE unit_id = ?`, unit.ID); err != nil {
			return MapError(err)
		}
		for i, key := range unit.Keys {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO catalog_cards (unit_id, card_key, position) VALUES (?, ?, ?)`,
				unit.ID, key, i); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to upsert content unit",
			slog.String("error", err.Error()),
			slog.String("unit_id", unit.ID))
		return store.NewStoreError("content_unit", "upsert", "transaction failed", err)
	}

	log.Info("content unit stored",
		slog.String("unit_id", unit.ID),
		slog.Int("card_count", len(unit.Keys)))
	return nil
}

// ListUnits implements store.CatalogStore.ListUnits
func (s *SQLiteCatalogStore) ListUnits(ctx context.Context) ([]*domain.ContentUnit, error) {
	var rows []struct {
		ID    string `db:"id"`
		Title string `db:"title"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, title FROM content_units ORDER BY id`); err != nil {
		return nil, store.NewStoreError("content_unit", "list", "query failed", MapError(err))
	}

	units := make([]*domain.ContentUnit, 0, len(rows))
	for _, r := range rows {
		units = append(units, &domain.ContentUnit{ID: r.ID, Title: r.Title})
	}
	return units, nil
}
