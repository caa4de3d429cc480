package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-study/internal/store"
)

// SQLSTATE codes the stores react to.
const (
	uniqueViolationCode      = "23505"
	foreignKeyViolationCode  = "23503"
	checkViolationCode       = "23514"
	notNullViolationCode     = "23502"
	serializationFailureCode = "40001"
)

// sqlStateErrors maps SQLSTATE codes to store sentinels.
var sqlStateErrors = map[string]error{
	uniqueViolationCode:      store.ErrDuplicate,
	foreignKeyViolationCode:  store.ErrInvalidEntity,
	checkViolationCode:       store.ErrInvalidEntity,
	notNullViolationCode:     store.ErrInvalidEntity,
	serializationFailureCode: store.ErrConflict,
}

// MapError translates driver errors into store sentinels, keeping the
// original text. Errors without a mapping are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	sentinel, ok := sqlStateErrors[pgErr.Code]
	if !ok {
		return err
	}
	if pgErr.ConstraintName != "" {
		return fmt.Errorf("%w: constraint %s: %v", sentinel, pgErr.ConstraintName, err)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns noRowsErr, or store.ErrNotFound when it is nil,
// if the statement touched no rows. Version-guarded updates pass
// store.ErrRecordConflict since a missing row and a stale version look the
// same.
func CheckRowsAffected(result sql.Result, noRowsErr error) error {
	if result == nil {
		return errors.New("nil result")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if noRowsErr == nil {
		return store.ErrNotFound
	}
	return noRowsErr
}
