// Package sqlite implements the internal/store interfaces on an embedded
// SQLite database using sqlx over the pure-Go modernc driver. It serves
// single-learner and local deployments where running PostgreSQL is not
// warranted. Instants are stored as Unix microseconds.
package sqlite
