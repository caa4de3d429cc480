package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
)

// Mock PgError creation helper
func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		SchemaName:     "public",
		TableName:      "learning_records",
		ColumnName:     "difficulty",
		ConstraintName: "learning_records_difficulty_check",
	}
}

// MockResult implements sql.Result for testing
type MockResult struct {
	rowsAffected int64
	err          error
}

func (m MockResult) LastInsertId() (int64, error) {
	return 0, m.err
}

func (m MockResult) RowsAffected() (int64, error) {
	return m.rowsAffected, m.err
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"unique violation", newPgError("23505"), true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", newPgError("23505")), true},
		{"other pg error", newPgError("23503"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, postgres.IsUniqueViolation(tt.err))
		})
	}
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		result    sql.Result
		noRowsErr error
		wantErr   error
	}{
		{"one row", MockResult{rowsAffected: 1}, store.ErrRecordConflict, nil},
		{"zero rows with sentinel", MockResult{rowsAffected: 0}, store.ErrRecordConflict, store.ErrRecordConflict},
		{"zero rows default", MockResult{rowsAffected: 0}, nil, store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := postgres.CheckRowsAffected(tt.result, tt.noRowsErr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("nil result", func(t *testing.T) {
		assert.Error(t, postgres.CheckRowsAffected(nil, nil))
	})

	t.Run("rows affected error", func(t *testing.T) {
		err := postgres.CheckRowsAffected(MockResult{err: errors.New("driver")}, nil)
		assert.ErrorContains(t, err, "failed to get rows affected")
	})
}

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", newPgError("23505"), store.ErrDuplicate},
		{"foreign key violation", newPgError("23503"), store.ErrInvalidEntity},
		{"check violation", newPgError("23514"), store.ErrInvalidEntity},
		{"not null violation", newPgError("23502"), store.ErrInvalidEntity},
		{"serialization failure", newPgError("40001"), store.ErrConflict},
		{"unmapped error", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.wantErr)
		})
	}

	assert.NoError(t, postgres.MapError(nil))
}
