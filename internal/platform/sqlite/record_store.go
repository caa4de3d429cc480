package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// recordRow is the column layout of learning_records.
type recordRow struct {
	LearnerID      string  `db:"learner_id"`
	UnitID         string  `db:"unit_id"`
	CardKey        string  `db:"card_key"`
	Difficulty     float64 `db:"difficulty"`
	Stability      float64 `db:"stability"`
	Retrievability float64 `db:"retrievability"`
	Reps           int     `db:"reps"`
	Lapses         int     `db:"lapses"`
	LastInterval   float64 `db:"last_interval"`
	LastReview     int64   `db:"last_review"`
	NextReview     int64   `db:"next_review"`
	Lifecycle      string  `db:"lifecycle"`
	StudiedToday   bool    `db:"studied_today"`
	StudyDay       string  `db:"study_day"`
	IntroducedDay  string  `db:"introduced_day"`
	SameDayReviews int     `db:"same_day_reviews"`
	Version        int64   `db:"version"`
	CreatedAt      int64   `db:"created_at"`
	UpdatedAt      int64   `db:"updated_at"`
}

func toRecordRow(rec *domain.LearningRecord) recordRow {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = rec.UpdatedAt
	}
	return recordRow{
		LearnerID:      rec.LearnerID.String(),
		UnitID:         rec.CardID.UnitID,
		CardKey:        rec.CardID.Key,
		Difficulty:     rec.Difficulty,
		Stability:      rec.Stability,
		Retrievability: rec.Retrievability,
		Reps:           rec.Reps,
		Lapses:         rec.Lapses,
		LastInterval:   rec.LastInterval,
		LastReview:     toMicros(rec.LastReview),
		NextReview:     toMicros(rec.NextReview),
		Lifecycle:      rec.Lifecycle.String(),
		StudiedToday:   rec.StudiedToday,
		StudyDay:       string(rec.StudyDay),
		IntroducedDay:  string(rec.IntroducedDay),
		SameDayReviews: rec.SameDayReviews,
		Version:        rec.Version,
		CreatedAt:      toMicros(createdAt),
		UpdatedAt:      toMicros(rec.UpdatedAt),
	}
}

func (r recordRow) toDomain() (*domain.LearningRecord, error) {
	learnerID, err := uuid.Parse(r.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid learner id %q: %w", r.LearnerID, err)
	}
	lifecycle, err := domain.ParseLifecycle(r.Lifecycle)
	if err != nil {
		return nil, err
	}
	return &domain.LearningRecord{
		LearnerID:      learnerID,
		CardID:         domain.CardID{UnitID: r.UnitID, Key: r.CardKey},
		Difficulty:     r.Difficulty,
		Stability:      r.Stability,
		Retrievability: r.Retrievability,
		Reps:           r.Reps,
		Lapses:         r.Lapses,
		LastInterval:   r.LastInterval,
		LastReview:     fromMicros(r.LastReview),
		NextReview:     fromMicros(r.NextReview),
		Lifecycle:      lifecycle,
		StudiedToday:   r.StudiedToday,
		StudyDay:       domain.DayKey(r.StudyDay),
		IntroducedDay:  domain.DayKey(r.IntroducedDay),
		SameDayReviews: r.SameDayReviews,
		Version:        r.Version,
		CreatedAt:      fromMicros(r.CreatedAt),
		UpdatedAt:      fromMicros(r.UpdatedAt),
	}, nil
}

func rowsToDomain(rows []recordRow) ([]*domain.LearningRecord, error) {
	records := make([]*domain.LearningRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// SQLiteRecordStore implements store.RecordStore on SQLite.
type SQLiteRecordStore struct {
	db     sqlx.ExtContext
	mapper *reflectx.Mapper
	logger *slog.Logger
}

// NewSQLiteRecordStore creates a record store on db. If logger is nil, a
// default logger will be used.
func NewSQLiteRecordStore(db *sqlx.DB, logger *slog.Logger) *SQLiteRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRecordStore{
		db:     db,
		mapper: db.Mapper,
		logger: logger.With(slog.String("component", "record_store")),
	}
}

var _ store.RecordStore = (*SQLiteRecordStore)(nil)

// ListForUnit implements store.RecordStore.ListForUnit
func (s *SQLiteRecordStore) ListForUnit(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
) ([]*domain.LearningRecord, error) {
	var rows []recordRow
	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT * FROM learning_records WHERE learner_id = ? AND unit_id = ? ORDER BY card_key`,
		learnerID.String(), unitID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query learning records",
			slog.String("error", err.Error()),
			slog.String("unit_id", unitID))
		return nil, store.NewStoreError("learning_record", "list", "query failed", MapError(err))
	}
	return rowsToDomain(rows)
}

// Get implements store.RecordStore.Get
func (s *SQLiteRecordStore) Get(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) (*domain.LearningRecord, error) {
	var row recordRow
	err := sqlx.GetContext(ctx, s.db, &row,
		`SELECT * FROM learning_records WHERE learner_id = ? AND unit_id = ? AND card_key = ?`,
		learnerID.String(), cardID.UnitID, cardID.Key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRecordNotFound
		}
		return nil, store.NewStoreError("learning_record", "get", "query failed", MapError(err))
	}
	return row.toDomain()
}

// Put implements store.RecordStore.Put
func (s *SQLiteRecordStore) Put(ctx context.Context, rec *domain.LearningRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if rec == nil {
		return fmt.Errorf("%w: nil learning record", store.ErrInvalidEntity)
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	row := toRecordRow(rec)
	var query string
	if rec.Version == 0 {
		row.Version = 1
		query = `INSERT INTO learning_records (
				learner_id, unit_id, card_key, difficulty, stability, retrievability,
				reps, lapses, last_interval, last_review, next_review, lifecycle,
				studied_today, study_day, introduced_day, same_day_reviews,
				version, created_at, updated_at
			) VALUES (
				:learner_id, :unit_id, :card_key, :difficulty, :stability, :retrievability,
				:reps, :lapses, :last_interval, :last_review, :next_review, :lifecycle,
				:studied_today, :study_day, :introduced_day, :same_day_reviews,
				:version, :created_at, :updated_at
			) ON CONFLICT (learner_id, unit_id, card_key) DO NOTHING`
	} else {
		query = `UPDATE learning_records SET
				difficulty = :difficulty, stability = :stability, retrievability = :retrievability,
				reps = :reps, lapses = :lapses, last_interval = :last_interval,
				last_review = :last_review, next_review = :next_review, lifecycle = :lifecycle,
				studied_today = :studied_today, study_day = :study_day,
				introduced_day = :introduced_day, same_day_reviews = :same_day_reviews,
				updated_at = :updated_at, version = version + 1
			WHERE learner_id = :learner_id AND unit_id = :unit_id AND card_key = :card_key
				AND version = :version`
	}

	result, err := sqlx.NamedExecContext(ctx, s.db, query, row)
	if err != nil {
		log.Error("failed to put learning record",
			slog.String("error", err.Error()),
			slog.String("card_id", rec.CardID.String()))
		return store.NewStoreError("learning_record", "put", "write failed", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		log.Info("learning record version conflict",
			slog.String("card_id", rec.CardID.String()),
			slog.Int64("expected_version", rec.Version))
		return store.ErrRecordConflict
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	rec.Version++
	return nil
}

// ListStale implements store.RecordStore.ListStale
func (s *SQLiteRecordStore) ListStale(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.LearningRecord, error) {
	if limit <= 0 {
		return []*domain.LearningRecord{}, nil
	}

	nowMicros := toMicros(now)
	var rows []recordRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT * FROM learning_records
		WHERE (lifecycle = 'learning' AND next_review <= ?)
		   OR (lifecycle = 'due' AND next_review > ?)
		ORDER BY next_review
		LIMIT ?`,
		nowMicros, nowMicros, limit)
	if err != nil {
		return nil, store.NewStoreError("learning_record", "list_stale", "query failed", MapError(err))
	}
	return rowsToDomain(rows)
}

// WithTx implements store.RecordStore.WithTx
func (s *SQLiteRecordStore) WithTx(tx *sql.Tx) store.RecordStore {
	return &SQLiteRecordStore{
		db:     &sqlx.Tx{Tx: tx, Mapper: s.mapper},
		mapper: s.mapper,
		logger: s.logger,
	}
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
