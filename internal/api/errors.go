package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/phrazzld/scry-study/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidLearnerID),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, domain.ErrUnknownCard),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the request is well formed but the card's state forbids it
	case errors.Is(err, domain.ErrClockSkew),
		errors.Is(err, domain.ErrCardRemoved),
		errors.Is(err, srs.ErrNotStudied),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidGrade),
		errors.Is(err, domain.ErrInvalidDays),
		errors.Is(err, domain.ErrInvalidCardID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidLearnerID):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Learner ID not found or invalid"

	case errors.Is(err, domain.ErrUnknownCard):
		return "Card not found"
	case errors.Is(err, store.ErrUnitNotFound):
		return "Unit not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, domain.ErrClockSkew):
		return "Review time precedes the last review"
	case errors.Is(err, domain.ErrCardRemoved):
		return "Card has been removed"
	case errors.Is(err, srs.ErrNotStudied):
		return "Card has not been studied yet"
	case errors.Is(err, study.ErrRetriesExhausted),
		errors.Is(err, store.ErrConflict):
		return "Card was modified concurrently, please retry"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidGrade):
		return "Grade must be \"again\" or \"good\""
	case errors.Is(err, domain.ErrInvalidDays):
		return "Days must be at least 1"
	case errors.Is(err, domain.ErrInvalidCardID):
		return "Invalid card ID format"
	case errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID):
		return "Invalid request format"
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Validation error"

	default:
		var serviceErr *study.ServiceError
		if errors.As(err, &serviceErr) {
			return "Failed to " + strings.ReplaceAll(serviceErr.Operation, "_", " ")
		}
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message of 5xx responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status >= http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleValidationError writes a 400 with a sanitized validation message.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'PostponeRequest.Days' Error:Field validation for 'Days' failed on the 'gte' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
