package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordColumnNames = []string{
	"learner_id", "unit_id", "card_key", "difficulty", "stability", "retrievability",
	"reps", "lapses", "last_interval", "last_review", "next_review", "lifecycle",
	"studied_today", "study_day", "introduced_day", "same_day_reviews",
	"version", "created_at", "updated_at",
}

func newMockRecordStore(t *testing.T) (*postgres.PostgresRecordStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewPostgresRecordStore(db, nil), mock
}

func testRecord(t *testing.T) *domain.LearningRecord {
	t.Helper()
	now := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
	rec, err := domain.NewLearningRecord(uuid.New(), domain.MustParseCardID("song1-3"), 5, now)
	require.NoError(t, err)
	return rec
}

func TestNewPostgresRecordStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { postgres.NewPostgresRecordStore(nil, nil) })
}

func TestPostgresRecordStore_Put(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		version     int64
		expect      func(mock sqlmock.Sqlmock)
		wantErr     error
		wantVersion int64
	}{
		{
			name:    "insert new record",
			version: 0,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO learning_records").WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantVersion: 1,
		},
		{
			name:    "insert loses to concurrent insert",
			version: 0,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO learning_records").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:     store.ErrRecordConflict,
			wantVersion: 0,
		},
		{
			name:    "update matching version",
			version: 3,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE learning_records SET").WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantVersion: 4,
		},
		{
			name:    "update stale version",
			version: 3,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE learning_records SET").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:     store.ErrRecordConflict,
			wantVersion: 3,
		},
		{
			name:    "driver error",
			version: 3,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE learning_records SET").WillReturnError(errors.New("connection reset"))
			},
			wantErr:     nil,
			wantVersion: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockRecordStore(t)
			tt.expect(mock)

			rec := testRecord(t)
			rec.Version = tt.version
			err := s.Put(context.Background(), rec)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.name == "driver error":
				var storeErr *store.StoreError
				assert.ErrorAs(t, err, &storeErr)
			default:
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantVersion, rec.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRecordStore_PutRejectsInvalidRecord(t *testing.T) {
	t.Parallel()
	s, mock := newMockRecordStore(t)

	rec := testRecord(t)
	rec.Difficulty = 11

	err := s.Put(context.Background(), rec)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
	assert.ErrorIs(t, s.Put(context.Background(), nil), store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordStore_Get(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	cardID := domain.MustParseCardID("song1-3")
	next := time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)
	last := time.Date(2024, 6, 4, 15, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		s, mock := newMockRecordStore(t)
		mock.ExpectQuery("FROM learning_records").
			WithArgs(learnerID, "song1", "3").
			WillReturnRows(sqlmock.NewRows(recordColumnNames).AddRow(
				learnerID.String(), "song1", "3", 4.9, 3.2, 0.95,
				int64(1), int64(0), 1.0, last, next, "learning",
				true, "2024-06-04", "2024-06-04", int64(0),
				int64(2), last, last,
			))

		rec, err := s.Get(context.Background(), learnerID, cardID)
		require.NoError(t, err)
		assert.Equal(t, cardID, rec.CardID)
		assert.Equal(t, learnerID, rec.LearnerID)
		assert.Equal(t, domain.LifecycleLearning, rec.Lifecycle)
		assert.Equal(t, last, rec.LastReview)
		assert.Equal(t, next, rec.NextReview)
		assert.Equal(t, domain.DayKey("2024-06-04"), rec.StudyDay)
		assert.Equal(t, int64(2), rec.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null last review", func(t *testing.T) {
		s, mock := newMockRecordStore(t)
		mock.ExpectQuery("FROM learning_records").
			WillReturnRows(sqlmock.NewRows(recordColumnNames).AddRow(
				learnerID.String(), "song1", "3", 5.0, 0.0, 1.0,
				int64(0), int64(0), 0.0, nil, next, "new",
				false, "", "", int64(0),
				int64(1), next, next,
			))

		rec, err := s.Get(context.Background(), learnerID, cardID)
		require.NoError(t, err)
		assert.True(t, rec.LastReview.IsZero())
		assert.Equal(t, domain.LifecycleNew, rec.Lifecycle)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockRecordStore(t)
		mock.ExpectQuery("FROM learning_records").
			WillReturnRows(sqlmock.NewRows(recordColumnNames))

		_, err := s.Get(context.Background(), learnerID, cardID)
		assert.ErrorIs(t, err, store.ErrRecordNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestPostgresRecordStore_ListForUnit(t *testing.T) {
	t.Parallel()

	s, mock := newMockRecordStore(t)
	learnerID := uuid.New()
	mock.ExpectQuery("FROM learning_records").
		WithArgs(learnerID, "song1").
		WillReturnRows(sqlmock.NewRows(recordColumnNames))

	records, err := s.ListForUnit(context.Background(), learnerID, "song1")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordStore_ListStale(t *testing.T) {
	t.Parallel()

	t.Run("zero limit skips the query", func(t *testing.T) {
		s, mock := newMockRecordStore(t)
		records, err := s.ListStale(context.Background(), time.Now(), 0)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		s, mock := newMockRecordStore(t)
		mock.ExpectQuery("FROM learning_records").WillReturnError(errors.New("timeout"))

		_, err := s.ListStale(context.Background(), time.Now(), 10)
		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "list_stale", storeErr.Operation)
	})
}

func TestPostgresRecordStore_WithTx(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := postgres.NewPostgresRecordStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO learning_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	rec := testRecord(t)
	require.NoError(t, s.WithTx(tx).Put(context.Background(), rec))
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(1), rec.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
