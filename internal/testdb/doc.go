// Package testdb provides utilities for database integration tests.
//
// Tests call GetTestDBWithT to obtain a migrated PostgreSQL connection and
// wrap their work in WithTx, which always rolls back so tests can run in
// parallel against a shared database. When no test database URL is set the
// calling test is skipped.
package testdb
