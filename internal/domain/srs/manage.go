package srs

import (
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Postpone pushes the next review of a studied card forward by days, counted
// from the later of the current next review and now. Memory fields are kept.
func Postpone(prior *domain.LearningRecord, days int, now time.Time) (*domain.LearningRecord, error) {
	if prior == nil {
		return nil, ErrNilRecord
	}
	if days < 1 {
		return nil, domain.ErrInvalidDays
	}
	if prior.Lifecycle == domain.LifecycleRemoved {
		return nil, domain.ErrCardRemoved
	}
	if prior.IsNew() {
		return nil, ErrNotStudied
	}

	base := prior.NextReview
	if now.After(base) {
		base = now
	}

	next := prior.Clone()
	next.NextReview = base.AddDate(0, 0, days)
	next.Lifecycle = Classify(next, now)
	next.UpdatedAt = now

	return next, nil
}

// Remove retires a card. History is kept and removal is idempotent.
func Remove(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
	if prior == nil {
		return nil, ErrNilRecord
	}
	next := prior.Clone()
	next.Lifecycle = domain.LifecycleRemoved
	next.UpdatedAt = now
	return next, nil
}

// Reinstate undoes Remove and reclassifies the card at now.
func Reinstate(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
	if prior == nil {
		return nil, ErrNilRecord
	}
	next := prior.Clone()
	next.Lifecycle = classifyActive(prior, now)
	next.UpdatedAt = now
	return next, nil
}
