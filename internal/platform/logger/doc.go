// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels, request-scoped loggers carried in a context,
// and a CI handler that stamps pipeline metadata on each record.
package logger
