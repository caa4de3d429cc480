package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
)

// Service is the study orchestration layer used by the HTTP API.
//
// Every method takes the learner's timezone; a nil location selects the
// configured default. Day boundaries (studied today, introduced today) are
// evaluated in that timezone.
type Service interface {
	// StartSession builds the ordered queue of cards to study now. The queue
	// may be empty. Card IDs the catalog no longer knows are dropped.
	StartSession(
		ctx context.Context,
		learnerID uuid.UUID,
		unitID string,
		studyAgain bool,
		loc *time.Location,
	) (*SessionPlan, error)

	// RecordAnswer applies a graded review to one card and persists it.
	// Returns domain.ErrInvalidGrade, domain.ErrUnknownCard,
	// domain.ErrClockSkew or domain.ErrCardRemoved for rejected reviews.
	RecordAnswer(
		ctx context.Context,
		learnerID uuid.UUID,
		cardID domain.CardID,
		grade domain.Grade,
		loc *time.Location,
	) (*domain.LearningRecord, error)

	// RecordStudyAgain records a bonus exposure without changing the card's
	// memory state or next review.
	RecordStudyAgain(
		ctx context.Context,
		learnerID uuid.UUID,
		cardID domain.CardID,
		loc *time.Location,
	) (*domain.LearningRecord, error)

	// GetStatus returns the bucket counts and session framing for a unit.
	GetStatus(ctx context.Context, learnerID uuid.UUID, unitID string, loc *time.Location) (*UnitStatus, error)

	// RemoveCard retires a card; ReinstateCard brings it back.
	RemoveCard(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, loc *time.Location) (*domain.LearningRecord, error)
	ReinstateCard(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, loc *time.Location) (*domain.LearningRecord, error)

	// PostponeCard pushes a studied card's next review forward by days.
	PostponeCard(
		ctx context.Context,
		learnerID uuid.UUID,
		cardID domain.CardID,
		days int,
		loc *time.Location,
	) (*domain.LearningRecord, error)

	// ListReviews returns the review history of a card, oldest first.
	ListReviews(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID) ([]*domain.ReviewLog, error)
}

// UnitStatus is the learner's standing on one content unit.
type UnitStatus struct {
	UnitID       string        `json:"unit_id"`
	Day          domain.DayKey `json:"day"`
	Status       srs.Status    `json:"status"`
	Framing      srs.Framing   `json:"framing"`
	NewAllowance int           `json:"new_allowance"`
	TotalCards   int           `json:"total_cards"`
}

// SessionPlan is the outcome of StartSession.
type SessionPlan struct {
	UnitStatus
	StudyAgain bool            `json:"study_again"`
	Queue      []domain.CardID `json:"queue"`
}

// Config holds the orchestration policy.
type Config struct {
	// ConflictRetries bounds how often a card is re-fetched and re-applied
	// after an optimistic concurrency conflict.
	ConflictRetries int

	// DefaultLocation is used when a call passes a nil location.
	DefaultLocation *time.Location
}

// Operation names used in ServiceError.
const (
	OpStartSession     = "start_session"
	OpRecordAnswer     = "record_answer"
	OpRecordStudyAgain = "record_study_again"
	OpGetStatus        = "get_status"
	OpRemoveCard       = "remove_card"
	OpReinstateCard    = "reinstate_card"
	OpPostponeCard     = "postpone_card"
	OpListReviews      = "list_reviews"
)

// ErrRetriesExhausted is returned when every retry of a card commit lost the
// optimistic concurrency race. It wraps store.ErrRecordConflict.
var ErrRetriesExhausted = errors.New("conflict retries exhausted")

// ServiceError wraps errors from the study service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_answer")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
