package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewMode distinguishes scheduled reviews from study-again passes.
type ReviewMode string

const (
	ReviewModeNormal     ReviewMode = "normal"
	ReviewModeStudyAgain ReviewMode = "study_again"
)

// ReviewLog is an append-only audit entry written for every committed review.
type ReviewLog struct {
	ID              uuid.UUID  `json:"id"`
	LearnerID       uuid.UUID  `json:"learner_id"`
	CardID          CardID     `json:"card_id"`
	Grade           Grade      `json:"grade,omitempty"`
	Mode            ReviewMode `json:"mode"`
	ReviewedAt      time.Time  `json:"reviewed_at"`
	ElapsedDays     float64    `json:"elapsed_days"`
	StabilityBefore float64    `json:"stability_before"`
	StabilityAfter  float64    `json:"stability_after"`
	DifficultyAfter float64    `json:"difficulty_after"`
	NextReview      time.Time  `json:"next_review"`
}

// NewReviewLog builds the audit entry for the transition from prior to next.
func NewReviewLog(
	prior, next *LearningRecord,
	grade Grade,
	mode ReviewMode,
	reviewedAt time.Time,
) *ReviewLog {
	var elapsed float64
	if !prior.LastReview.IsZero() && reviewedAt.After(prior.LastReview) {
		elapsed = reviewedAt.Sub(prior.LastReview).Hours() / 24
	}
	return &ReviewLog{
		ID:              uuid.New(),
		LearnerID:       next.LearnerID,
		CardID:          next.CardID,
		Grade:           grade,
		Mode:            mode,
		ReviewedAt:      reviewedAt,
		ElapsedDays:     elapsed,
		StabilityBefore: prior.Stability,
		StabilityAfter:  next.Stability,
		DifficultyAfter: next.Difficulty,
		NextReview:      next.NextReview,
	}
}
