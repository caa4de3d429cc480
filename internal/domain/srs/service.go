package srs

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// Service defines the interface for scheduling operations. Every method is
// pure: inputs are never modified and no I/O is performed.
type Service interface {
	// Params returns the policy the service was built with.
	Params() Params

	// NewRecord synthesizes the default record for an unseen card.
	NewRecord(learnerID uuid.UUID, cardID domain.CardID, now time.Time) (*domain.LearningRecord, error)

	// Update applies a graded review.
	Update(
		prior *domain.LearningRecord,
		grade domain.Grade,
		now time.Time,
		loc *time.Location,
	) (*domain.LearningRecord, error)

	// StudyAgain records a bonus exposure without touching the memory model.
	StudyAgain(prior *domain.LearningRecord, now time.Time, loc *time.Location) (*domain.LearningRecord, error)

	// Refresh reclassifies a record and rolls its day counters over.
	Refresh(rec *domain.LearningRecord, now time.Time, loc *time.Location) *domain.LearningRecord

	// Budget derives today's session budget from the learner's records.
	Budget(
		records []*domain.LearningRecord,
		now time.Time,
		loc *time.Location,
		studyAgain bool,
	) SessionBudget

	// BuildQueue orders the cards for a session.
	BuildQueue(
		records []*domain.LearningRecord,
		budget SessionBudget,
		now time.Time,
		loc *time.Location,
	) []domain.CardID

	// Aggregate tallies records by bucket.
	Aggregate(records []*domain.LearningRecord, now time.Time, loc *time.Location) Status

	// PostponeReview pushes the next review time forward by a specified number of days
	PostponeReview(prior *domain.LearningRecord, days int, now time.Time) (*domain.LearningRecord, error)

	// Remove retires a card; Reinstate brings it back.
	Remove(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error)
	Reinstate(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{
		params: params,
	}, nil
}

func (s *defaultService) Params() Params {
	return *s.params
}

func (s *defaultService) NewRecord(
	learnerID uuid.UUID,
	cardID domain.CardID,
	now time.Time,
) (*domain.LearningRecord, error) {
	return NewRecord(learnerID, cardID, now, s.params)
}

func (s *defaultService) Update(
	prior *domain.LearningRecord,
	grade domain.Grade,
	now time.Time,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	return Update(prior, grade, now, loc, s.params)
}

func (s *defaultService) StudyAgain(
	prior *domain.LearningRecord,
	now time.Time,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	return StudyAgain(prior, now, loc)
}

func (s *defaultService) Refresh(
	rec *domain.LearningRecord,
	now time.Time,
	loc *time.Location,
) *domain.LearningRecord {
	return Refresh(rec, now, loc)
}

func (s *defaultService) Budget(
	records []*domain.LearningRecord,
	now time.Time,
	loc *time.Location,
	studyAgain bool,
) SessionBudget {
	return NewSessionBudget(records, now, loc, s.params, studyAgain)
}

func (s *defaultService) BuildQueue(
	records []*domain.LearningRecord,
	budget SessionBudget,
	now time.Time,
	loc *time.Location,
) []domain.CardID {
	return BuildQueue(records, budget, now, loc)
}

func (s *defaultService) Aggregate(
	records []*domain.LearningRecord,
	now time.Time,
	loc *time.Location,
) Status {
	return Aggregate(records, now, loc)
}

func (s *defaultService) PostponeReview(
	prior *domain.LearningRecord,
	days int,
	now time.Time,
) (*domain.LearningRecord, error) {
	return Postpone(prior, days, now)
}

func (s *defaultService) Remove(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
	return Remove(prior, now)
}

func (s *defaultService) Reinstate(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
	return Reinstate(prior, now)
}
