package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for LearningRecord
var (
	ErrEmptyRecordLearnerID   = errors.New("learning record learner ID cannot be empty")
	ErrInvalidDifficulty      = errors.New("difficulty must be between 1 and 10")
	ErrInvalidStability       = errors.New("stability must be greater than or equal to 0")
	ErrInvalidRetrievability  = errors.New("retrievability must be between 0 and 1")
	ErrInvalidReps            = errors.New("reps must be greater than or equal to 0")
	ErrInvalidLapses          = errors.New("lapses must be greater than or equal to 0")
	ErrInvalidInterval        = errors.New("interval must be greater than or equal to 0")
	ErrInvalidSameDayReviews  = errors.New("same day reviews must be greater than or equal to 0")
	ErrInvalidDayKey          = errors.New("day key must be formatted YYYY-MM-DD")
	ErrInvalidRecordLifecycle = fmt.Errorf("%w: learning record", ErrInvalidLifecycle)
)

// LearningRecord is the memory state of one learner for one card. It is the
// unit of durable state written back after every review.
type LearningRecord struct {
	LearnerID uuid.UUID `json:"learner_id"`
	CardID    CardID    `json:"card_id"`

	Difficulty     float64 `json:"difficulty"`     // [1,10], higher is harder
	Stability      float64 `json:"stability"`      // days until recall decays to the reference threshold
	Retrievability float64 `json:"retrievability"` // recall probability at the last computation
	Reps           int     `json:"reps"`
	Lapses         int     `json:"lapses"`
	LastInterval   float64 `json:"last_interval"` // days

	LastReview time.Time `json:"last_review"`
	NextReview time.Time `json:"next_review"`

	Lifecycle Lifecycle `json:"lifecycle"`

	StudiedToday   bool   `json:"studied_today"`
	StudyDay       DayKey `json:"study_day,omitempty"`
	IntroducedDay  DayKey `json:"introduced_day,omitempty"`
	SameDayReviews int    `json:"same_day_reviews"`

	// Version is the optimistic concurrency token. Zero means the record has
	// never been persisted.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLearningRecord synthesizes the default record for a card the learner has
// never answered. The record is not persisted until its first review.
func NewLearningRecord(
	learnerID uuid.UUID,
	cardID CardID,
	baselineDifficulty float64,
	now time.Time,
) (*LearningRecord, error) {
	rec := &LearningRecord{
		LearnerID:      learnerID,
		CardID:         cardID,
		Difficulty:     baselineDifficulty,
		Stability:      0,
		Retrievability: 1,
		Lifecycle:      LifecycleNew,
		NextReview:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks the record's invariants.
func (r *LearningRecord) Validate() error {
	if r.LearnerID == uuid.Nil {
		return ErrEmptyRecordLearnerID
	}
	if err := r.CardID.Validate(); err != nil {
		return err
	}
	if r.Difficulty < 1 || r.Difficulty > 10 {
		return ErrInvalidDifficulty
	}
	if r.Stability < 0 {
		return ErrInvalidStability
	}
	if r.Retrievability < 0 || r.Retrievability > 1 {
		return ErrInvalidRetrievability
	}
	if r.Reps < 0 {
		return ErrInvalidReps
	}
	if r.Lapses < 0 {
		return ErrInvalidLapses
	}
	if r.LastInterval < 0 {
		return ErrInvalidInterval
	}
	if r.SameDayReviews < 0 {
		return ErrInvalidSameDayReviews
	}
	if !r.Lifecycle.IsValid() {
		return ErrInvalidRecordLifecycle
	}
	if !r.StudyDay.Valid() || !r.IntroducedDay.Valid() {
		return ErrInvalidDayKey
	}
	return nil
}

// IsNew reports whether the card has never been reviewed.
func (r *LearningRecord) IsNew() bool {
	return r.Reps == 0 && r.Lapses == 0
}

// IsPersisted reports whether the record exists in the store.
func (r *LearningRecord) IsPersisted() bool {
	return r.Version > 0
}

// Clone returns a copy of the record.
func (r *LearningRecord) Clone() *LearningRecord {
	c := *r
	return &c
}
