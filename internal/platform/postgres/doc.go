// Package postgres implements the store interfaces on PostgreSQL through the
// pgx database/sql driver.
//
// Learning records are written with a version predicate; a write that finds
// no matching row reports store.ErrRecordConflict. A second append of the
// same review log entry ID reports store.ErrDuplicate.
package postgres
