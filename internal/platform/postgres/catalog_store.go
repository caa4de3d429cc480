package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// PostgresCatalogStore implements the store.CatalogStore interface.
// It needs a *sql.DB rather than a DBTX because UpsertUnit runs its own transaction.
type PostgresCatalogStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCatalogStore creates a new PostgreSQL implementation of the CatalogStore interface.
func NewPostgresCatalogStore(db *sql.DB, logger *slog.Logger) *PostgresCatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

var _ store.CatalogStore = (*PostgresCatalogStore)(nil)

// ListCards implements store.CatalogStore.ListCards
func (s *PostgresCatalogStore) ListCards(ctx context.Context, unitID string) ([]domain.CardID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_units WHERE id = $1)`, unitID,
	).Scan(&exists)
	if err != nil {
		log.Error("failed to check content unit", slog.String("error", err.Error()), slog.String("unit_id", unitID))
		return nil, store.NewStoreError("content_unit", "list_cards", "query failed", MapError(err))
	}
	if !exists {
		return nil, store.ErrUnitNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT card_key FROM catalog_cards WHERE unit_id = $1 ORDER BY position`, unitID)
	if err != nil {
		log.Error("failed to list catalog cards", slog.String("error", err.Error()), slog.String("unit_id", unitID))
		return nil, store.NewStoreError("content_unit", "list_cards", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	ids := []domain.CardID{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, store.NewStoreError("content_unit", "list_cards", "scan failed", err)
		}
		ids = append(ids, domain.CardID{UnitID: unitID, Key: key})
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("content_unit", "list_cards", "iteration failed", err)
	}
	return ids, nil
}

// UpsertUnit implements store.CatalogStore.UpsertUnit
// The unit's card list is replaced wholesale inside one transaction.
func (s *PostgresCatalogStore) UpsertUnit(ctx context.Context, unit *domain.ContentUnit) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if unit == nil {
		return fmt.Errorf("%w: nil content unit", store.ErrInvalidEntity)
	}
	if err := unit.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	now := time.Now().UTC()
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO content_units (id, title, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, updated_at = EXCLUDED.updated_at`,
			unit.ID, unit.Title, now)
		if err != nil {
			return MapError(err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_cards WHERE unit_id = $1`, unit.ID); err != nil {
			return MapError(err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO catalog_cards (unit_id, card_key, position) VALUES ($1, $2, $3)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i, key := range unit.Keys {
			if _, err := stmt.ExecContext(ctx, unit.ID, key, i); err != nil {
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
func (s *PostgresCatalogStore) ListUnits(ctx context.Context) ([]*domain.ContentUnit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM content_units ORDER BY id`)
	if err != nil {
		return nil, store.NewStoreError("content_unit", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	units := []*domain.ContentUnit{}
	for rows.Next() {
		var u domain.ContentUnit
		if err := rows.Scan(&u.ID, &u.Title); err != nil {
			return nil, store.NewStoreError("content_unit", "list", "scan failed", err)
		}
		units = append(units, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("content_unit", "list", "iteration failed", err)
	}
	return units, nil
}
