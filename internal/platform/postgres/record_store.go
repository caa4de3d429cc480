package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

const recordColumns = `
	learner_id, unit_id, card_key, difficulty, stability, retrievability,
	reps, lapses, last_interval, last_review, next_review, lifecycle,
	studied_today, study_day, introduced_day, same_day_reviews,
	version, created_at, updated_at`

// PostgresRecordStore implements the store.RecordStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecordStore creates a new PostgreSQL implementation of the RecordStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRecordStore(db store.DBTX, logger *slog.Logger) *PostgresRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "record_store")),
	}
}

// Ensure PostgresRecordStore implements store.RecordStore interface
var _ store.RecordStore = (*PostgresRecordStore)(nil)

// ListForUnit implements store.RecordStore.ListForUnit
func (s *PostgresRecordStore) ListForUnit(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
) ([]*domain.LearningRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + recordColumns + `
		FROM learning_records
		WHERE learner_id = $1 AND unit_id = $2
		ORDER BY card_key`

	rows, err := s.db.QueryContext(ctx, query, learnerID, unitID)
	if err != nil {
		log.Error("failed to query learning records",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()),
			slog.String("unit_id", unitID))
		return nil, store.NewStoreError("learning_record", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		log.Error("failed to scan learning records",
			slog.String("error", err.Error()),
			slog.String("unit_id", unitID))
		return nil, store.NewStoreError("learning_record", "list", "scan failed", err)
	}

	log.Debug("listed learning records",
		slog.String("learner_id", learnerID.String()),
		slog.String("unit_id", unitID),
		slog.Int("count", len(records)))
	return records, nil
}

// Get implements store.RecordStore.Get
// Returns store.ErrRecordNotFound if the learner has never answered the card.
func (s *PostgresRecordStore) Get(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) (*domain.LearningRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + recordColumns + `
		FROM learning_records
		WHERE learner_id = $1 AND unit_id = $2 AND card_key = $3`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, learnerID, cardID.UnitID, cardID.Key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("learning record not found",
				slog.String("learner_id", learnerID.String()),
				slog.String("card_id", cardID.String()))
			return nil, store.ErrRecordNotFound
		}
		log.Error("failed to get learning record",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, store.NewStoreError("learning_record", "get", "query failed", MapError(err))
	}

	return rec, nil
}

// Put implements store.RecordStore.Put
// A zero Version inserts; the insert loses to any concurrent insert of the same
// key. A non-zero Version updates only when the stored version still matches.
func (s *PostgresRecordStore) Put(ctx context.Context, rec *domain.LearningRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if rec == nil {
		return fmt.Errorf("%w: nil learning record", store.ErrInvalidEntity)
	}
	if err := rec.Validate(); err != nil {
		log.Warn("learning record validation failed during put",
			slog.String("error", err.Error()),
			slog.String("card_id", rec.CardID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var (
		result sql.Result
		err    error
	)
	if rec.Version == 0 {
		query := `INSERT INTO learning_records (` + recordColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, $17, $18)
			ON CONFLICT (learner_id, unit_id, card_key) DO NOTHING`
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = rec.UpdatedAt
		}
		result, err = s.db.ExecContext(ctx, query,
			rec.LearnerID, rec.CardID.UnitID, rec.CardID.Key,
			rec.Difficulty, rec.Stability, rec.Retrievability,
			rec.Reps, rec.Lapses, rec.LastInterval,
			nullTime(rec.LastReview), rec.NextReview.UTC(), rec.Lifecycle.String(),
			rec.StudiedToday, string(rec.StudyDay), string(rec.IntroducedDay), rec.SameDayReviews,
			createdAt.UTC(), rec.UpdatedAt.UTC(),
		)
	} else {
		query := `UPDATE learning_records SET
				difficulty = $4, stability = $5, retrievability = $6,
				reps = $7, lapses = $8, last_interval = $9,
				last_review = $10, next_review = $11, lifecycle = $12,
				studied_today = $13, study_day = $14, introduced_day = $15,
				same_day_reviews = $16, updated_at = $17,
				version = version + 1
			WHERE learner_id = $1 AND unit_id = $2 AND card_key = $3 AND version = $18`
		result, err = s.db.ExecContext(ctx, query,
			rec.LearnerID, rec.CardID.UnitID, rec.CardID.Key,
			rec.Difficulty, rec.Stability, rec.Retrievability,
			rec.Reps, rec.Lapses, rec.LastInterval,
			nullTime(rec.LastReview), rec.NextReview.UTC(), rec.Lifecycle.String(),
			rec.StudiedToday, string(rec.StudyDay), string(rec.IntroducedDay),
			rec.SameDayReviews, rec.UpdatedAt.UTC(),
			rec.Version,
		)
	}
	if err != nil {
		log.Error("failed to put learning record",
			slog.String("error", err.Error()),
			slog.String("card_id", rec.CardID.String()),
			slog.Int64("version", rec.Version))
		return store.NewStoreError("learning_record", "put", "write failed", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrRecordConflict); err != nil {
		if errors.Is(err, store.ErrRecordConflict) {
			log.Info("learning record version conflict",
				slog.String("learner_id", rec.LearnerID.String()),
				slog.String("card_id", rec.CardID.String()),
				slog.Int64("expected_version", rec.Version))
		}
		return err
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	rec.Version++
	log.Debug("learning record stored",
		slog.String("card_id", rec.CardID.String()),
		slog.Int64("version", rec.Version),
		slog.String("lifecycle", rec.Lifecycle.String()))
	return nil
}

// ListStale implements store.RecordStore.ListStale
func (s *PostgresRecordStore) ListStale(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.LearningRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []*domain.LearningRecord{}, nil
	}

	query := `SELECT ` + recordColumns + `
		FROM learning_records
		WHERE (lifecycle = 'learning' AND next_review <= $1)
		   OR (lifecycle = 'due' AND next_review > $1)
		ORDER BY next_review
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		log.Error("failed to query stale learning records", slog.String("error", err.Error()))
		return nil, store.NewStoreError("learning_record", "list_stale", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, store.NewStoreError("learning_record", "list_stale", "scan failed", err)
	}
	return records, nil
}

// WithTx implements store.RecordStore.WithTx
func (s *PostgresRecordStore) WithTx(tx *sql.Tx) store.RecordStore {
	return &PostgresRecordStore{
		db:     tx,
		logger: s.logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.LearningRecord, error) {
	var (
		rec           domain.LearningRecord
		lastReview    sql.NullTime
		lifecycle     string
		studyDay      string
		introducedDay string
	)
	err := row.Scan(
		&rec.LearnerID, &rec.CardID.UnitID, &rec.CardID.Key,
		&rec.Difficulty, &rec.Stability, &rec.Retrievability,
		&rec.Reps, &rec.Lapses, &rec.LastInterval,
		&lastReview, &rec.NextReview, &lifecycle,
		&rec.StudiedToday, &studyDay, &introducedDay, &rec.SameDayReviews,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Lifecycle, err = domain.ParseLifecycle(lifecycle)
	if err != nil {
		return nil, err
	}
	if lastReview.Valid {
		rec.LastReview = lastReview.Time.UTC()
	}
	rec.NextReview = rec.NextReview.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.StudyDay = domain.DayKey(studyDay)
	rec.IntroducedDay = domain.DayKey(introducedDay)
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*domain.LearningRecord, error) {
	records := []*domain.LearningRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
