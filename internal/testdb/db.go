package testdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/scry-study/internal/platform/migrations"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDBWithT opens a connection to the test database and applies all
// migrations once per test binary. The test is skipped when no database URL
// is configured. The connection is closed during test cleanup.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("skipping database test: set %s or %s", EnvScryTestDBURL, EnvDatabaseURL)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", MaskDatabaseURL(dbURL), err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database %s: %v", MaskDatabaseURL(dbURL), err)
	}

	migrateOnce.Do(func() {
		migrateErr = migrations.Run(ctx, db, migrations.DriverPostgres, migrations.CommandUp, nil)
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}

	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so changes
// made by the test are never persisted.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			// ALLOW-PANIC
			panic(r)
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
