package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Common errors
var (
	ErrNilRecord     = errors.New("learning record cannot be nil")
	ErrInvalidParams = errors.New("invalid scheduler parameters")

	// ErrNotStudied is returned when postponing or re-studying a card that has
	// never been reviewed.
	ErrNotStudied = fmt.Errorf("%w: card has not been studied", domain.ErrValidation)
)
