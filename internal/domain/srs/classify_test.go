package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  func() *domain.LearningRecord
		now  time.Time
		want domain.Lifecycle
	}{
		{
			name: "never reviewed is new",
			rec:  func() *domain.LearningRecord { return newRec("1") },
			now:  t0.Add(1000 * time.Hour),
			want: domain.LifecycleNew,
		},
		{
			name: "overdue by an hour is due",
			rec:  func() *domain.LearningRecord { return reviewed("1", t0.Add(-time.Hour), "") },
			now:  t0,
			want: domain.LifecycleDue,
		},
		{
			name: "exactly at next review is due",
			rec:  func() *domain.LearningRecord { return reviewed("1", t0, "") },
			now:  t0,
			want: domain.LifecycleDue,
		},
		{
			name: "not yet due is learning",
			rec:  func() *domain.LearningRecord { return reviewed("1", t0.Add(time.Minute), "") },
			now:  t0,
			want: domain.LifecycleLearning,
		},
		{
			name: "lapsed with zero reps is not new",
			rec: func() *domain.LearningRecord {
				r := reviewed("1", t0.Add(5*time.Minute), "")
				r.Reps = 0
				r.Lapses = 1
				return r
			},
			now:  t0,
			want: domain.LifecycleLearning,
		},
		{
			name: "removed is sticky",
			rec: func() *domain.LearningRecord {
				r := reviewed("1", t0.Add(-time.Hour), "")
				r.Lifecycle = domain.LifecycleRemoved
				return r
			},
			now:  t0,
			want: domain.LifecycleRemoved,
		},
		{
			name: "stale cached due is reclassified",
			rec: func() *domain.LearningRecord {
				r := reviewed("1", t0.Add(time.Hour), "")
				r.Lifecycle = domain.LifecycleDue
				return r
			},
			now:  t0,
			want: domain.LifecycleLearning,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := tc.rec()
			first := Classify(rec, tc.now)
			assert.Equal(t, tc.want, first)
			assert.Equal(t, first, Classify(rec, tc.now), "classification must be deterministic")
		})
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	t.Parallel()

	rec := reviewed("1", t0.Add(-time.Hour), "2024-06-02")
	rec.SameDayReviews = 3

	once := Refresh(rec, t0, time.UTC)
	twice := Refresh(once, t0, time.UTC)

	assert.Equal(t, once, twice)
	assert.Equal(t, domain.LifecycleDue, once.Lifecycle)
	assert.False(t, once.StudiedToday)
	assert.Equal(t, 0, once.SameDayReviews)
	assert.True(t, rec.StudiedToday, "input must not be modified")
	assert.True(t, NeedsRefresh(rec, t0))
	assert.False(t, NeedsRefresh(once, t0))
}

func TestRefreshUsesLearnerTimezone(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	// 15:00 UTC on June 3 is already June 4 in Tokyo.
	rec := reviewed("1", t0.Add(48*time.Hour), "2024-06-03")

	assert.True(t, Refresh(rec, t0, time.UTC).StudiedToday)
	assert.False(t, Refresh(rec, t0, tokyo).StudiedToday)
}

func TestRefreshDerivesStudiedTodayFromStudyDay(t *testing.T) {
	t.Parallel()

	// A stored flag cleared by an earlier writer in another timezone.
	rec := reviewed("1", t0.Add(48*time.Hour), "2024-06-03")
	rec.StudiedToday = false
	rec.SameDayReviews = 2

	got := Refresh(rec, t0, time.UTC)
	assert.True(t, got.StudiedToday)
	assert.Equal(t, 2, got.SameDayReviews)

	nextDay := Refresh(rec, t0.Add(24*time.Hour), time.UTC)
	assert.False(t, nextDay.StudiedToday)
	assert.Equal(t, 0, nextDay.SameDayReviews)

	never := reviewed("2", t0.Add(48*time.Hour), "")
	assert.False(t, Refresh(never, t0, time.UTC).StudiedToday)
}

func TestRefreshLifecycleKeepsDayState(t *testing.T) {
	t.Parallel()

	rec := reviewed("1", t0.Add(-time.Hour), "2024-06-01")
	rec.SameDayReviews = 4

	got := RefreshLifecycle(rec, t0)
	assert.Equal(t, domain.LifecycleDue, got.Lifecycle)
	assert.True(t, got.StudiedToday)
	assert.Equal(t, domain.DayKey("2024-06-01"), got.StudyDay)
	assert.Equal(t, 4, got.SameDayReviews)
	assert.Equal(t, domain.LifecycleLearning, rec.Lifecycle, "input must not be modified")
}
