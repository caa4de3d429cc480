package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

type reviewLogRow struct {
	ID              string  `db:"id"`
	LearnerID       string  `db:"learner_id"`
	UnitID          string  `db:"unit_id"`
	CardKey         string  `db:"card_key"`
	Grade           string  `db:"grade"`
	Mode            string  `db:"mode"`
	ReviewedAt      int64   `db:"reviewed_at"`
	ElapsedDays     float64 `db:"elapsed_days"`
	StabilityBefore float64 `db:"stability_before"`
	StabilityAfter  float64 `db:"stability_after"`
	DifficultyAfter float64 `db:"difficulty_after"`
	NextReview      int64   `db:"next_review"`
}

// SQLiteReviewLogStore implements store.ReviewLogStore on SQLite.
type SQLiteReviewLogStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteReviewLogStore creates a review log store on db.
func NewSQLiteReviewLogStore(db *sqlx.DB, logger *slog.Logger) *SQLiteReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*SQLiteReviewLogStore)(nil)

// Append implements store.ReviewLogStore.Append
func (s *SQLiteReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLog) error {
	if entry == nil {
		return fmt.Errorf("%w: nil review log", store.ErrInvalidEntity)
	}

	row := reviewLogRow{
		ID:              entry.ID.String(),
		LearnerID:       entry.LearnerID.String(),
		UnitID:          entry.CardID.UnitID,
		CardKey:         entry.CardID.Key,
		Grade:           store.GradeText(entry.Grade),
		Mode:            string(entry.Mode),
		ReviewedAt:      toMicros(entry.ReviewedAt),
		ElapsedDays:     entry.ElapsedDays,
		StabilityBefore: entry.StabilityBefore,
		StabilityAfter:  entry.StabilityAfter,
		DifficultyAfter: entry.DifficultyAfter,
		NextReview:      toMicros(entry.NextReview),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO review_logs (
			id, learner_id, unit_id, card_key, grade, mode, reviewed_at,
			elapsed_days, stability_before, stability_after, difficulty_after, next_review
		) VALUES (
			:id, :learner_id, :unit_id, :card_key, :grade, :mode, :reviewed_at,
			:elapsed_days, :stability_before, :stability_after, :difficulty_after, :next_review
		)`, row)
	if err != nil {
		s.logger.Error("failed to append review log",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return store.NewStoreError("review_log", "append", "insert failed", MapError(err))
	}
	return nil
}

// ListForCard implements store.ReviewLogStore.ListForCard
func (s *SQLiteReviewLogStore) ListForCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) ([]*domain.ReviewLog, error) {
	var rows []reviewLogRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM review_logs
		WHERE learner_id = ? AND unit_id = ? AND card_key = ?
		ORDER BY reviewed_at, id`,
		learnerID.String(), cardID.UnitID, cardID.Key)
	if err != nil {
		return nil, store.NewStoreError("review_log", "list", "query failed", MapError(err))
	}

	entries := make([]*domain.ReviewLog, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, store.NewStoreError("review_log", "list", "invalid id", err)
		}
		grade, err := store.ParseGradeText(r.Grade)
		if err != nil {
			return nil, store.NewStoreError("review_log", "list", "invalid grade", err)
		}
		entries = append(entries, &domain.ReviewLog{
			ID:              id,
			LearnerID:       learnerID,
			CardID:          domain.CardID{UnitID: r.UnitID, Key: r.CardKey},
			Grade:           grade,
			Mode:            domain.ReviewMode(r.Mode),
			ReviewedAt:      fromMicros(r.ReviewedAt),
			ElapsedDays:     r.ElapsedDays,
			StabilityBefore: r.StabilityBefore,
			StabilityAfter:  r.StabilityAfter,
			DifficultyAfter: r.DifficultyAfter,
			NextReview:      fromMicros(r.NextReview),
		})
	}
	return entries, nil
}
