package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/stretchr/testify/assert"
)

const today = domain.DayKey("2024-06-03")

func TestBuildQueueExhaustedBudgetKeepsReinforcement(t *testing.T) {
	t.Parallel()

	records := []*domain.LearningRecord{
		newRec("1"), newRec("2"), newRec("3"), newRec("4"), newRec("5"),
		reviewed("10", t0.Add(-2*time.Hour), ""),
		reviewed("11", t0.Add(-time.Hour), ""),
		reviewed("12", t0.Add(time.Hour), ""),
	}
	budget := SessionBudget{MaxNewPerDay: 20, NewIntroducedToday: 20}

	got := BuildQueue(records, budget, t0, time.UTC)

	assert.Equal(t, ids("10", "11", "12"), got)
}

func TestBuildQueueOrdersReinforcementBeforeNew(t *testing.T) {
	t.Parallel()

	records := []*domain.LearningRecord{
		newRec("3"),
		reviewed("7", t0.Add(3*time.Hour), ""),
		newRec("1"),
		reviewed("9", t0.Add(-time.Hour), ""),
		reviewed("8", t0.Add(-time.Hour), ""),
		newRec("2"),
	}
	budget := SessionBudget{MaxNewPerDay: 20}

	got := BuildQueue(records, budget, t0, time.UTC)

	assert.Equal(t, ids("8", "9", "7", "1", "2", "3"), got)
}

func TestBuildQueueNewAllowance(t *testing.T) {
	t.Parallel()

	var records []*domain.LearningRecord
	for _, k := range []string{"5", "4", "3", "2", "1"} {
		records = append(records, newRec(k))
	}

	tests := []struct {
		name       string
		max        int
		introduced int
		want       []domain.CardID
	}{
		{"partial allowance", 20, 18, ids("1", "2")},
		{"allowance larger than supply", 20, 0, ids("1", "2", "3", "4", "5")},
		{"over budget never negative", 20, 25, ids()},
		{"zero budget", 0, 0, ids()},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			budget := SessionBudget{MaxNewPerDay: tc.max, NewIntroducedToday: tc.introduced}
			got := BuildQueue(records, budget, t0, time.UTC)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), max(tc.max-tc.introduced, 0))
		})
	}
}

func TestBuildQueueStudyAgain(t *testing.T) {
	t.Parallel()

	records := []*domain.LearningRecord{
		reviewed("3", t0.Add(30*time.Hour), today),
		reviewed("1", t0.Add(50*time.Hour), today),
		reviewed("2", t0.Add(10*time.Hour), today),
		reviewed("4", t0.Add(-time.Hour), ""),
		reviewed("5", t0.Add(-time.Hour), "2024-06-02"),
		newRec("6"),
	}
	budget := SessionBudget{MaxNewPerDay: 20, NewIntroducedToday: 20, StudyAgain: true}

	got := BuildQueue(records, budget, t0, time.UTC)

	assert.Equal(t, ids("2", "3", "1"), got)
}

func TestBuildQueueSkipsRemovedAndDuplicates(t *testing.T) {
	t.Parallel()

	removed := reviewed("1", t0.Add(-time.Hour), "")
	removed.Lifecycle = domain.LifecycleRemoved
	dup := reviewed("2", t0.Add(-time.Hour), "")

	records := []*domain.LearningRecord{removed, dup, dup.Clone(), nil, newRec("3"), newRec("3")}
	got := BuildQueue(records, SessionBudget{MaxNewPerDay: 20}, t0, time.UTC)

	assert.Equal(t, ids("2", "3"), got)
}

func TestBuildQueueEmpty(t *testing.T) {
	t.Parallel()

	got := BuildQueue(nil, SessionBudget{MaxNewPerDay: 20}, t0, time.UTC)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestNewSessionBudget(t *testing.T) {
	t.Parallel()

	introducedToday := reviewed("1", t0.Add(time.Hour), today)
	introducedToday.IntroducedDay = today
	introducedYesterday := reviewed("2", t0.Add(time.Hour), "")
	introducedYesterday.IntroducedDay = "2024-06-02"

	records := []*domain.LearningRecord{introducedToday, introducedYesterday, newRec("3")}
	budget := NewSessionBudget(records, t0, time.UTC, NewDefaultParams(), false)

	assert.Equal(t, SessionBudget{MaxNewPerDay: 20, NewIntroducedToday: 1}, budget)
	assert.Equal(t, 1, budget.NewAllowance(1))
	assert.Equal(t, 0, budget.NewAllowance(0))
}
