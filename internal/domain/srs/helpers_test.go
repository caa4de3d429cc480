package srs

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

var (
	testLearner = uuid.MustParse("7a1f0c52-2d1b-4f0e-9d8e-0b1c2d3e4f50")
	t0          = time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
)

func newRec(key string) *domain.LearningRecord {
	rec, err := NewRecord(testLearner, domain.MustParseCardID("unit-"+key), t0, NewDefaultParams())
	if err != nil {
		panic(err)
	}
	return rec
}

// reviewed builds a record that has been studied at least once.
func reviewed(key string, next time.Time, studiedDay domain.DayKey) *domain.LearningRecord {
	rec := newRec(key)
	rec.Reps = 1
	rec.Stability = 3
	rec.Difficulty = 5
	rec.LastReview = next.Add(-72 * time.Hour)
	rec.NextReview = next
	rec.LastInterval = 3
	rec.Lifecycle = domain.LifecycleLearning
	rec.IntroducedDay = domain.DayKeyFor(rec.LastReview, time.UTC)
	if studiedDay != "" {
		rec.StudiedToday = true
		rec.StudyDay = studiedDay
	}
	return rec
}

func ids(keys ...string) []domain.CardID {
	out := make([]domain.CardID, len(keys))
	for i, k := range keys {
		out[i] = domain.MustParseCardID("unit-" + k)
	}
	return out
}
