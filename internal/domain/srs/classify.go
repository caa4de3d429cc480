package srs

import (
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Classify derives the lifecycle bucket of a record at now. It is the single
// source of truth for lifecycle; the stored value is only a cache.
func Classify(rec *domain.LearningRecord, now time.Time) domain.Lifecycle {
	if rec.Lifecycle == domain.LifecycleRemoved {
		return domain.LifecycleRemoved
	}
	return classifyActive(rec, now)
}

// classifyActive classifies a record as if it had never been removed.
func classifyActive(rec *domain.LearningRecord, now time.Time) domain.Lifecycle {
	switch {
	case rec.IsNew():
		return domain.LifecycleNew
	case !now.Before(rec.NextReview):
		return domain.LifecycleDue
	default:
		return domain.LifecycleLearning
	}
}

// Refresh returns a copy of rec whose projections are valid at now for a
// learner in loc. The lifecycle is reclassified and studied_today is derived
// from the study day, so the stored flag never has to be trusted; the
// same-day counter reads as zero once the learner's day has rolled over.
func Refresh(rec *domain.LearningRecord, now time.Time, loc *time.Location) *domain.LearningRecord {
	out := RefreshLifecycle(rec, now)
	out.StudiedToday = out.StudyDay != "" && out.StudyDay == domain.DayKeyFor(now, loc)
	if !out.StudiedToday {
		out.SameDayReviews = 0
	}
	return out
}

// RefreshLifecycle returns a copy of rec with only the lifecycle reclassified.
// It needs no timezone and is what background maintenance persists.
func RefreshLifecycle(rec *domain.LearningRecord, now time.Time) *domain.LearningRecord {
	out := rec.Clone()
	out.Lifecycle = Classify(rec, now)
	return out
}

// NeedsRefresh reports whether the stored lifecycle of rec is out of date at now.
func NeedsRefresh(rec *domain.LearningRecord, now time.Time) bool {
	return Classify(rec, now) != rec.Lifecycle
}
