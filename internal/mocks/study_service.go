package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// MockStudyService implements study.Service for testing
type MockStudyService struct {
	// Custom behavior functions
	StartSessionFn func(
		ctx context.Context, learnerID uuid.UUID, unitID string, studyAgain bool, loc *time.Location,
	) (*study.SessionPlan, error)
	RecordAnswerFn func(
		ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, grade domain.Grade, loc *time.Location,
	) (*domain.LearningRecord, error)
	RecordStudyAgainFn func(
		ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, loc *time.Location,
	) (*domain.LearningRecord, error)
	GetStatusFn func(
		ctx context.Context, learnerID uuid.UUID, unitID string, loc *time.Location,
	) (*study.UnitStatus, error)
	RemoveCardFn func(
		ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, loc *time.Location,
	) (*domain.LearningRecord, error)
	ReinstateCardFn func(
		ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, loc *time.Location,
	) (*domain.LearningRecord, error)
	PostponeCardFn func(
		ctx context.Context, learnerID uuid.UUID, cardID domain.CardID, days int, loc *time.Location,
	) (*domain.LearningRecord, error)
	ListReviewsFn func(
		ctx context.Context, learnerID uuid.UUID, cardID domain.CardID,
	) ([]*domain.ReviewLog, error)

	// Default response values
	Plan    *study.SessionPlan
	Status  *study.UnitStatus
	Record  *domain.LearningRecord
	Reviews []*domain.ReviewLog
	Err     error

	// Call tracking for verification
	Calls struct {
		mu         sync.Mutex
		Operations []string
		LearnerIDs []uuid.UUID
		Locations  []*time.Location
	}
}

var _ study.Service = (*MockStudyService)(nil)

func (m *MockStudyService) track(op string, learnerID uuid.UUID, loc *time.Location) {
	m.Calls.mu.Lock()
	defer m.Calls.mu.Unlock()
	m.Calls.Operations = append(m.Calls.Operations, op)
	m.Calls.LearnerIDs = append(m.Calls.LearnerIDs, learnerID)
	m.Calls.Locations = append(m.Calls.Locations, loc)
}

// LastCall returns the most recent operation, learner and location.
func (m *MockStudyService) LastCall() (string, uuid.UUID, *time.Location) {
	m.Calls.mu.Lock()
	defer m.Calls.mu.Unlock()
	n := len(m.Calls.Operations)
	if n == 0 {
		return "", uuid.Nil, nil
	}
	return m.Calls.Operations[n-1], m.Calls.LearnerIDs[n-1], m.Calls.Locations[n-1]
}

// StartSession implements study.Service.
func (m *MockStudyService) StartSession(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
	studyAgain bool,
	loc *time.Location,
) (*study.SessionPlan, error) {
	m.track(study.OpStartSession, learnerID, loc)
	if m.StartSessionFn != nil {
		return m.StartSessionFn(ctx, learnerID, unitID, studyAgain, loc)
	}
	return m.Plan, m.Err
}

// RecordAnswer implements study.Service.
func (m *MockStudyService) RecordAnswer(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	grade domain.Grade,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	m.track(study.OpRecordAnswer, learnerID, loc)
	if m.RecordAnswerFn != nil {
		return m.RecordAnswerFn(ctx, learnerID, cardID, grade, loc)
	}
	return m.Record, m.Err
}

// RecordStudyAgain implements study.Service.
func (m *MockStudyService) RecordStudyAgain(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	m.track(study.OpRecordStudyAgain, learnerID, loc)
	if m.RecordStudyAgainFn != nil {
		return m.RecordStudyAgainFn(ctx, learnerID, cardID, loc)
	}
	return m.Record, m.Err
}

// GetStatus implements study.Service.
func (m *MockStudyService) GetStatus(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
	loc *time.Location,
) (*study.UnitStatus, error) {
	m.track(study.OpGetStatus, learnerID, loc)
	if m.GetStatusFn != nil {
		return m.GetStatusFn(ctx, learnerID, unitID, loc)
	}
	return m.Status, m.Err
}

// RemoveCard implements study.Service.
func (m *MockStudyService) RemoveCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	m.track(study.OpRemoveCard, learnerID, loc)
	if m.RemoveCardFn != nil {
		return m.RemoveCardFn(ctx, learnerID, cardID, loc)
	}
	return m.Record, m.Err
}

// ReinstateCard implements study.Service.
func (m *MockStudyService) ReinstateCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	m.track(study.OpReinstateCard, learnerID, loc)
	if m.ReinstateCardFn != nil {
		return m.ReinstateCardFn(ctx, learnerID, cardID, loc)
	}
	return m.Record, m.Err
}

// PostponeCard implements study.Service.
func (m *MockStudyService) PostponeCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	days int,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	m.track(study.OpPostponeCard, learnerID, loc)
	if m.PostponeCardFn != nil {
		return m.PostponeCardFn(ctx, learnerID, cardID, days, loc)
	}
	return m.Record, m.Err
}

// ListReviews implements study.Service.
func (m *MockStudyService) ListReviews(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) ([]*domain.ReviewLog, error) {
	m.track(study.OpListReviews, learnerID, nil)
	if m.ListReviewsFn != nil {
		return m.ListReviewsFn(ctx, learnerID, cardID)
	}
	return m.Reviews, m.Err
}
