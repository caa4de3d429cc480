package srs

import (
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Status summarizes a learner's records for one content unit.
type Status struct {
	NewCount           int `json:"new_count"`
	LearningCount      int `json:"learning_count"`
	DueCount           int `json:"due_count"`
	StudiedTodayCount  int `json:"studied_today_count"`
	NewIntroducedToday int `json:"new_introduced_today"`
	RemovedCount       int `json:"removed_count"`
}

// Framing is how a session should be presented to the learner.
type Framing string

const (
	FramingStart      Framing = "start"
	FramingContinue   Framing = "continue"
	FramingStudyAgain Framing = "study_again"
)

// Aggregate tallies records after reclassifying them at now.
func Aggregate(records []*domain.LearningRecord, now time.Time, loc *time.Location) Status {
	today := domain.DayKeyFor(now, loc)
	seen := make(map[domain.CardID]struct{}, len(records))
	var s Status

	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, dup := seen[rec.CardID]; dup {
			continue
		}
		seen[rec.CardID] = struct{}{}

		r := Refresh(rec, now, loc)
		if r.IntroducedDay == today {
			s.NewIntroducedToday++
		}
		switch r.Lifecycle {
		case domain.LifecycleNew:
			s.NewCount++
		case domain.LifecycleLearning:
			s.LearningCount++
		case domain.LifecycleDue:
			s.DueCount++
		case domain.LifecycleRemoved:
			s.RemovedCount++
			continue
		}
		if r.StudiedToday {
			s.StudiedTodayCount++
		}
	}

	return s
}

// Frame picks the session framing. Nothing studied today starts a session.
// Once the learner has studied, the session continues while cards are due or
// new cards remain within the budget, and otherwise offers a study-again pass.
func Frame(s Status, budget SessionBudget) Framing {
	if s.StudiedTodayCount == 0 {
		return FramingStart
	}
	if s.DueCount > 0 || budget.NewAllowance(s.NewCount) > 0 {
		return FramingContinue
	}
	return FramingStudyAgain
}
