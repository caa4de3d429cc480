// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidCardID is returned when a card identifier cannot be split into
	// a content unit ID and an in-unit key.
	ErrInvalidCardID = errors.New("invalid card ID")

	// ErrInvalidGrade is returned when a grade other than Again or Good is supplied.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrClockSkew is returned when the review instant precedes the record's
	// last review. It indicates a caller or store bug and is never retried.
	ErrClockSkew = errors.New("review time precedes last review")

	// ErrCardRemoved is returned when an operation other than reinstatement
	// targets a retired card.
	ErrCardRemoved = errors.New("card has been removed")

	// ErrInvalidDays is returned when a postponement is shorter than one day.
	ErrInvalidDays = errors.New("postpone days must be at least 1")

	// ErrUnknownCard is returned when a card ID cannot be resolved against
	// the content catalog.
	ErrUnknownCard = errors.New("unknown card")

	// ErrInvalidLifecycle is returned when a lifecycle value is not one of
	// new, learning, due or removed.
	ErrInvalidLifecycle = errors.New("invalid lifecycle")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
