package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// NewRecord synthesizes the default record for a card with no stored state.
func NewRecord(learnerID uuid.UUID, cardID domain.CardID, now time.Time, p *Params) (*domain.LearningRecord, error) {
	return domain.NewLearningRecord(learnerID, cardID, p.BaselineDifficulty, now)
}

// elapsedDays returns the days since the last review, failing on a negative
// delta. A record that was never reviewed has zero elapsed time.
func elapsedDays(prior *domain.LearningRecord, now time.Time) (float64, error) {
	if prior.LastReview.IsZero() {
		return 0, nil
	}
	if now.Before(prior.LastReview) {
		return 0, fmt.Errorf("%w: now %s, last review %s",
			domain.ErrClockSkew,
			now.Format(time.RFC3339Nano),
			prior.LastReview.Format(time.RFC3339Nano))
	}
	return now.Sub(prior.LastReview).Hours() / 24, nil
}

// Update applies a graded review to prior and returns the new record. prior is
// not modified.
func Update(
	prior *domain.LearningRecord,
	grade domain.Grade,
	now time.Time,
	loc *time.Location,
	p *Params,
) (*domain.LearningRecord, error) {
	if prior == nil {
		return nil, ErrNilRecord
	}
	if !grade.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidGrade, grade)
	}
	if prior.Lifecycle == domain.LifecycleRemoved {
		return nil, domain.ErrCardRemoved
	}

	elapsed, err := elapsedDays(prior, now)
	if err != nil {
		return nil, err
	}

	m := newMemoryModel(p)
	g := gradeValue(grade)
	next := prior.Clone()
	firstReview := prior.IsNew() || prior.Stability <= 0

	// Memory recalculation
	var recall float64
	if firstReview {
		recall = 1
		next.Stability = m.initStability(g)
		next.Difficulty = m.clampD(m.initDifficulty(g))
	} else {
		recall = m.retrievability(elapsed, prior.Stability)
		difficulty := m.clampD(prior.Difficulty)
		switch {
		case elapsed < 1:
			next.Stability = m.shortTermStability(prior.Stability, g)
		case grade == domain.GradeAgain:
			next.Stability = m.forgetStability(difficulty, prior.Stability, recall)
		default:
			next.Stability = m.recallStability(difficulty, prior.Stability, recall)
		}
		next.Difficulty = m.nextDifficulty(difficulty, g)
	}

	var intervalDays float64
	if grade == domain.GradeAgain {
		next.Lapses = prior.Lapses + 1
		next.Reps = 0
	} else {
		next.Reps = prior.Reps + 1
		intervalDays = m.interval(next.Stability, p.DesiredRetention, p.MaximumIntervalDays)
	}

	// Clamp outputs
	next.Difficulty = m.clampD(next.Difficulty)
	next.Retrievability = clamp01(recall)
	next.Stability = math.Max(next.Stability, 0)
	intervalDays = math.Max(intervalDays, 0)
	next.Reps = max(next.Reps, 0)
	next.Lapses = max(next.Lapses, 0)

	next.NextReview = nextReviewAt(grade, intervalDays, now, p)

	today := domain.DayKeyFor(now, loc)
	if prior.IsNew() && prior.IntroducedDay.IsZero() {
		next.IntroducedDay = today
	}
	next.Lifecycle = domain.LifecycleLearning
	next.LastReview = now
	next.LastInterval = intervalDays
	next.StudiedToday = true
	next.StudyDay = today
	next.SameDayReviews = 0
	next.UpdatedAt = now

	return next, nil
}

func nextReviewAt(grade domain.Grade, intervalDays float64, now time.Time, p *Params) time.Time {
	if grade == domain.GradeAgain {
		return now.Add(p.RelearningDelay)
	}
	ivl := time.Duration(intervalDays * float64(24*time.Hour))
	if ivl < p.MinimumInterval {
		return now.Add(p.MinimumInterval)
	}
	return now.Add(ivl)
}

// StudyAgain records a bonus exposure of a studied card. Only the review time
// and the day counters change; memory fields and the next review instant are
// kept. A card with no graded review must go through Update first.
func StudyAgain(prior *domain.LearningRecord, now time.Time, loc *time.Location) (*domain.LearningRecord, error) {
	if prior == nil {
		return nil, ErrNilRecord
	}
	if prior.Lifecycle == domain.LifecycleRemoved {
		return nil, domain.ErrCardRemoved
	}
	if prior.IsNew() {
		return nil, ErrNotStudied
	}
	if _, err := elapsedDays(prior, now); err != nil {
		return nil, err
	}

	today := domain.DayKeyFor(now, loc)
	next := prior.Clone()
	if next.StudyDay != today {
		next.SameDayReviews = 0
	}
	next.LastReview = now
	next.StudiedToday = true
	next.StudyDay = today
	next.SameDayReviews++
	next.UpdatedAt = now

	return next, nil
}
