package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// PostgresReviewLogStore implements the store.ReviewLogStore interface.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the ReviewLogStore interface.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// Append implements store.ReviewLogStore.Append
func (s *PostgresReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if entry == nil {
		return fmt.Errorf("%w: nil review log", store.ErrInvalidEntity)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (
			id, learner_id, unit_id, card_key, grade, mode, reviewed_at,
			elapsed_days, stability_before, stability_after, difficulty_after, next_review
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.LearnerID, entry.CardID.UnitID, entry.CardID.Key,
		store.GradeText(entry.Grade), string(entry.Mode), entry.ReviewedAt.UTC(),
		entry.ElapsedDays, entry.StabilityBefore, entry.StabilityAfter,
		entry.DifficultyAfter, entry.NextReview.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate review log entry", slog.String("review_id", entry.ID.String()))
		} else {
			log.Error("failed to append review log",
				slog.String("error", err.Error()),
				slog.String("card_id", entry.CardID.String()))
		}
		return store.NewStoreError("review_log", "append", "insert failed", MapError(err))
	}
	return nil
}

// ListForCard implements store.ReviewLogStore.ListForCard
func (s *PostgresReviewLogStore) ListForCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) ([]*domain.ReviewLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, learner_id, unit_id, card_key, grade, mode, reviewed_at,
			elapsed_days, stability_before, stability_after, difficulty_after, next_review
		FROM review_logs
		WHERE learner_id = $1 AND unit_id = $2 AND card_key = $3
		ORDER BY reviewed_at, id`,
		learnerID, cardID.UnitID, cardID.Key)
	if err != nil {
		return nil, store.NewStoreError("review_log", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.ReviewLog{}
	for rows.Next() {
		var (
			e     domain.ReviewLog
			grade string
			mode  string
		)
		if err := rows.Scan(
			&e.ID, &e.LearnerID, &e.CardID.UnitID, &e.CardID.Key, &grade, &mode, &e.ReviewedAt,
			&e.ElapsedDays, &e.StabilityBefore, &e.StabilityAfter, &e.DifficultyAfter, &e.NextReview,
		); err != nil {
			return nil, store.NewStoreError("review_log", "list", "scan failed", err)
		}
		if e.Grade, err = store.ParseGradeText(grade); err != nil {
			return nil, store.NewStoreError("review_log", "list", "invalid grade", err)
		}
		e.Mode = domain.ReviewMode(mode)
		e.ReviewedAt = e.ReviewedAt.UTC()
		e.NextReview = e.NextReview.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_log", "list", "iteration failed", err)
	}
	return entries, nil
}
