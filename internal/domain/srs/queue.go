package srs

import (
	"slices"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// SessionBudget bounds how many new cards a session may introduce.
type SessionBudget struct {
	MaxNewPerDay       int
	NewIntroducedToday int
	StudyAgain         bool
}

// NewSessionBudget derives the budget for today from the learner's records.
func NewSessionBudget(
	records []*domain.LearningRecord,
	now time.Time,
	loc *time.Location,
	p *Params,
	studyAgain bool,
) SessionBudget {
	today := domain.DayKeyFor(now, loc)
	introduced := 0
	for _, rec := range records {
		if rec != nil && rec.IntroducedDay == today {
			introduced++
		}
	}
	return SessionBudget{
		MaxNewPerDay:       p.MaxNewPerDay,
		NewIntroducedToday: introduced,
		StudyAgain:         studyAgain,
	}
}

// NewAllowance returns how many of the available new cards may be admitted.
// It is never negative and never more than available.
func (b SessionBudget) NewAllowance(available int) int {
	allowance := b.MaxNewPerDay - b.NewIntroducedToday
	if allowance < 0 {
		allowance = 0
	}
	return min(allowance, max(available, 0))
}

// BuildQueue orders the cards to present in a session. Reinforcement (due and
// learning cards) comes before acquisition (new cards); each group is ordered
// by next review and then card ID. In study-again mode the queue holds every
// card studied today and the new-card budget is ignored.
func BuildQueue(
	records []*domain.LearningRecord,
	budget SessionBudget,
	now time.Time,
	loc *time.Location,
) []domain.CardID {
	seen := make(map[domain.CardID]struct{}, len(records))
	var reinforce, fresh, studied []*domain.LearningRecord

	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, dup := seen[rec.CardID]; dup {
			continue
		}
		seen[rec.CardID] = struct{}{}

		r := Refresh(rec, now, loc)
		if r.Lifecycle == domain.LifecycleRemoved {
			continue
		}
		if r.StudiedToday {
			studied = append(studied, r)
		}
		switch r.Lifecycle {
		case domain.LifecycleDue, domain.LifecycleLearning:
			reinforce = append(reinforce, r)
		case domain.LifecycleNew:
			fresh = append(fresh, r)
		}
	}

	if budget.StudyAgain {
		sortByDue(studied)
		return cardIDs(studied)
	}

	sortByDue(reinforce)
	sortByDue(fresh)
	fresh = fresh[:budget.NewAllowance(len(fresh))]

	queue := make([]domain.CardID, 0, len(reinforce)+len(fresh))
	queue = append(queue, cardIDs(reinforce)...)
	return append(queue, cardIDs(fresh)...)
}

func sortByDue(recs []*domain.LearningRecord) {
	slices.SortStableFunc(recs, func(a, b *domain.LearningRecord) int {
		if c := a.NextReview.Compare(b.NextReview); c != 0 {
			return c
		}
		return a.CardID.Compare(b.CardID)
	})
}

func cardIDs(recs []*domain.LearningRecord) []domain.CardID {
	ids := make([]domain.CardID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.CardID)
	}
	return ids
}
