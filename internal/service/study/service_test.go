package study_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/mocks"
	"github.com/phrazzld/scry-study/internal/platform/clock"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc       study.Service
	records   *mocks.MockRecordStore
	catalog   *mocks.MockCatalogStore
	logs      *mocks.MockReviewLogStore
	clock     *clock.Manual
	learnerID uuid.UUID
}

func newFixture(t *testing.T, maxNew int, retries int) *fixture {
	t.Helper()

	srsService, err := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{MaxNewPerDay: maxNew}))
	require.NoError(t, err)

	f := &fixture{
		records: mocks.NewMockRecordStore(),
		catalog: mocks.NewMockCatalogStore(
			&domain.ContentUnit{ID: "song1", Title: "First", Keys: []string{"1", "2", "3"}},
			&domain.ContentUnit{ID: "song2", Title: "Second", Keys: []string{"1", "2"}},
		),
		logs:      mocks.NewMockReviewLogStore(),
		clock:     clock.NewManual(t0),
		learnerID: uuid.New(),
	}

	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(events.NewReviewLogHandler(f.logs, nil))

	f.svc = study.NewStudyService(f.records, f.catalog, f.logs, srsService, emitter, f.clock,
		study.Config{ConflictRetries: retries}, nil)
	return f
}

func TestStartSession_FreshUnit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, 3)

	plan, err := f.svc.StartSession(context.Background(), f.learnerID, "song1", false, nil)
	require.NoError(t, err)

	assert.Equal(t, []domain.CardID{
		domain.MustParseCardID("song1-1"),
		domain.MustParseCardID("song1-2"),
	}, plan.Queue)
	assert.Equal(t, 3, plan.Status.NewCount)
	assert.Equal(t, 0, plan.Status.StudiedTodayCount)
	assert.Equal(t, srs.FramingStart, plan.Framing)
	assert.Equal(t, 2, plan.NewAllowance)
	assert.Equal(t, 3, plan.TotalCards)
	assert.Equal(t, domain.DayKey("2024-06-03"), plan.Day)
	assert.False(t, plan.StudyAgain)

	// Nothing is persisted by reading.
	assert.Equal(t, 0, f.records.PutCalls)
}

func TestStartSession_UnknownUnit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)

	_, err := f.svc.StartSession(context.Background(), f.learnerID, "missing", false, nil)
	assert.ErrorIs(t, err, store.ErrUnitNotFound)

	var svcErr *study.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, study.OpStartSession, svcErr.Operation)
}

func TestStartSession_DropsCardsMissingFromCatalog(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)

	orphan, err := domain.NewLearningRecord(f.learnerID, domain.MustParseCardID("song1-9"), 5, t0.Add(-48*time.Hour))
	require.NoError(t, err)
	orphan.Reps = 1
	orphan.Lifecycle = domain.LifecycleLearning
	orphan.LastReview = t0.Add(-48 * time.Hour)
	orphan.NextReview = t0.Add(-24 * time.Hour)
	f.records.Seed(orphan)

	plan, err := f.svc.StartSession(context.Background(), f.learnerID, "song1", false, nil)
	require.NoError(t, err)
	assert.NotContains(t, plan.Queue, orphan.CardID)
	assert.Len(t, plan.Queue, 3)
	assert.Equal(t, 0, plan.Status.DueCount)
}

func TestRecordAnswer_LazyCreationAndQueue(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2, 3)
	ctx := context.Background()
	cardID := domain.MustParseCardID("song1-1")

	assert.Nil(t, f.records.Stored(f.learnerID, cardID))

	rec, err := f.svc.RecordAnswer(ctx, f.learnerID, cardID, domain.GradeGood, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, 1, rec.Reps)
	assert.Equal(t, domain.LifecycleLearning, rec.Lifecycle)
	assert.True(t, rec.StudiedToday)
	assert.Equal(t, domain.DayKey("2024-06-03"), rec.IntroducedDay)
	assert.False(t, rec.NextReview.Before(t0.Add(24*time.Hour)))

	stored := f.records.Stored(f.learnerID, cardID)
	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.Version)

	entries := f.logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, cardID, entries[0].CardID)
	assert.Equal(t, domain.GradeGood, entries[0].Grade)
	assert.Equal(t, domain.ReviewModeNormal, entries[0].Mode)
	assert.True(t, entries[0].NextReview.Equal(rec.NextReview))

	f.clock.Advance(time.Minute)
	plan, err := f.svc.StartSession(ctx, f.learnerID, "song1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.CardID{cardID, domain.MustParseCardID("song1-2")}, plan.Queue)
	assert.Equal(t, srs.FramingContinue, plan.Framing)
	assert.Equal(t, 1, plan.Status.NewIntroducedToday)
	assert.Equal(t, 1, plan.NewAllowance)
}

func TestRecordAnswer_Again(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	cardID := domain.MustParseCardID("song1-2")

	rec, err := f.svc.RecordAnswer(context.Background(), f.learnerID, cardID, domain.GradeAgain, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Lapses)
	assert.Equal(t, 0, rec.Reps)
	assert.Equal(t, t0.Add(5*time.Minute), rec.NextReview)
}

func TestRecordAnswer_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cardID  domain.CardID
		grade   domain.Grade
		wantErr error
	}{
		{"invalid grade", domain.MustParseCardID("song1-1"), domain.Grade(7), domain.ErrInvalidGrade},
		{"zero grade", domain.MustParseCardID("song1-1"), domain.Grade(0), domain.ErrInvalidGrade},
		{"card not in unit", domain.MustParseCardID("song1-9"), domain.GradeGood, domain.ErrUnknownCard},
		{"unit not in catalog", domain.MustParseCardID("song9-1"), domain.GradeGood, domain.ErrUnknownCard},
		{"invalid card ID", domain.CardID{UnitID: "song1"}, domain.GradeGood, domain.ErrInvalidCardID},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, 20, 3)

			rec, err := f.svc.RecordAnswer(context.Background(), f.learnerID, tt.cardID, tt.grade, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, rec)
			assert.Equal(t, 0, f.records.PutCalls)
			assert.Empty(t, f.logs.Entries())
		})
	}
}

func TestRecordAnswer_ClockSkewIsNotRetried(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	cardID := domain.MustParseCardID("song1-1")

	future, err := domain.NewLearningRecord(f.learnerID, cardID, 5, t0)
	require.NoError(t, err)
	future.Reps = 1
	future.Stability = 3
	future.Lifecycle = domain.LifecycleLearning
	future.LastReview = t0.Add(time.Hour)
	future.NextReview = t0.Add(25 * time.Hour)
	f.records.Seed(future)

	_, err = f.svc.RecordAnswer(context.Background(), f.learnerID, cardID, domain.GradeGood, nil)
	assert.ErrorIs(t, err, domain.ErrClockSkew)
	assert.Equal(t, 0, f.records.PutCalls)
	assert.Equal(t, 1, f.records.GetCalls)
}

func TestRecordAnswer_ConflictRetry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	cardID := domain.MustParseCardID("song1-1")

	first := true
	f.records.PutFn = func(ctx context.Context, rec *domain.LearningRecord) error {
		if first {
			first = false
			// Another device commits the same card first.
			competitor := rec.Clone()
			require.NoError(t, f.records.PutDirect(competitor))
		}
		return f.records.PutDirect(rec)
	}

	rec, err := f.svc.RecordAnswer(context.Background(), f.learnerID, cardID, domain.GradeGood, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.records.PutCalls)
	assert.Equal(t, 2, f.records.GetCalls)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, 2, rec.Reps, "rule re-applied on top of the competing write")
	assert.Len(t, f.logs.Entries(), 1)
}

func TestRecordAnswer_ConflictRetriesExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 2)

	f.records.PutFn = func(ctx context.Context, rec *domain.LearningRecord) error {
		return store.ErrRecordConflict
	}

	_, err := f.svc.RecordAnswer(context.Background(), f.learnerID, domain.MustParseCardID("song1-1"), domain.GradeGood, nil)
	assert.ErrorIs(t, err, store.ErrRecordConflict)
	assert.ErrorIs(t, err, study.ErrRetriesExhausted)
	assert.Equal(t, 3, f.records.PutCalls)
	assert.Empty(t, f.logs.Entries())
}

func TestRecordAnswer_StoreFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	boom := errors.New("connection reset")
	f.records.GetFn = func(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID) (*domain.LearningRecord, error) {
		return nil, boom
	}

	_, err := f.svc.RecordAnswer(context.Background(), f.learnerID, domain.MustParseCardID("song1-1"), domain.GradeGood, nil)
	assert.ErrorIs(t, err, boom)

	var svcErr *study.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, study.OpRecordAnswer, svcErr.Operation)
}

func TestRecordAnswer_CancelledContext(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.RecordAnswer(ctx, f.learnerID, domain.MustParseCardID("song1-1"), domain.GradeGood, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.records.PutCalls)
}

func TestRecordStudyAgain(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	ctx := context.Background()

	for _, key := range []string{"song2-1", "song2-2"} {
		_, err := f.svc.RecordAnswer(ctx, f.learnerID, domain.MustParseCardID(key), domain.GradeGood, nil)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	status, err := f.svc.GetStatus(ctx, f.learnerID, "song2", nil)
	require.NoError(t, err)
	assert.Equal(t, srs.FramingStudyAgain, status.Framing)
	assert.Equal(t, 2, status.Status.StudiedTodayCount)

	plan, err := f.svc.StartSession(ctx, f.learnerID, "song2", true, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.CardID{
		domain.MustParseCardID("song2-1"),
		domain.MustParseCardID("song2-2"),
	}, plan.Queue)
	assert.True(t, plan.StudyAgain)

	cardID := plan.Queue[0]
	before := f.records.Stored(f.learnerID, cardID)
	rec, err := f.svc.RecordStudyAgain(ctx, f.learnerID, cardID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.SameDayReviews)
	assert.Equal(t, before.NextReview, rec.NextReview)
	assert.Equal(t, before.Stability, rec.Stability)
	assert.Equal(t, before.Reps, rec.Reps)
	assert.Equal(t, f.clock.Now(), rec.LastReview)

	entries := f.logs.Entries()
	require.Len(t, entries, 3)
	last := entries[2]
	assert.Equal(t, domain.ReviewModeStudyAgain, last.Mode)
	assert.Equal(t, domain.Grade(0), last.Grade)
	assert.Equal(t, before.Stability, last.StabilityAfter)
}

func TestRecordStudyAgain_RejectsUnseenCard(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	ctx := context.Background()
	cardID := domain.MustParseCardID("song1-1")

	_, err := f.svc.RecordStudyAgain(ctx, f.learnerID, cardID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, srs.ErrNotStudied)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Nil(t, f.records.Stored(f.learnerID, cardID))
	assert.Equal(t, 0, f.records.PutCalls)
	assert.Empty(t, f.logs.Entries())

	status, err := f.svc.GetStatus(ctx, f.learnerID, "song1", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Status.NewCount)
	assert.Equal(t, 0, status.Status.StudiedTodayCount)
}

func TestRemoveAndReinstate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	ctx := context.Background()
	cardID := domain.MustParseCardID("song1-3")

	// A card can be opted out before it was ever shown.
	rec, err := f.svc.RemoveCard(ctx, f.learnerID, cardID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.LifecycleRemoved, rec.Lifecycle)
	stored := f.records.Stored(f.learnerID, cardID)
	require.NotNil(t, stored)
	assert.Equal(t, domain.LifecycleRemoved, stored.Lifecycle)
	assert.Equal(t, 0, stored.Reps)
	assert.True(t, stored.LastReview.IsZero())
	assert.Equal(t, int64(1), stored.Version)

	_, err = f.svc.RecordAnswer(ctx, f.learnerID, cardID, domain.GradeGood, nil)
	assert.ErrorIs(t, err, domain.ErrCardRemoved)
	_, err = f.svc.RecordStudyAgain(ctx, f.learnerID, cardID, nil)
	assert.ErrorIs(t, err, domain.ErrCardRemoved)

	plan, err := f.svc.StartSession(ctx, f.learnerID, "song1", false, nil)
	require.NoError(t, err)
	assert.NotContains(t, plan.Queue, cardID)
	assert.Equal(t, 1, plan.Status.RemovedCount)
	assert.Equal(t, 2, plan.Status.NewCount)

	rec, err = f.svc.ReinstateCard(ctx, f.learnerID, cardID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.LifecycleNew, rec.Lifecycle)
	assert.Equal(t, int64(2), rec.Version)

	// Removal never writes an audit entry.
	assert.Empty(t, f.logs.Entries())
}

func TestPostponeCard(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	ctx := context.Background()
	cardID := domain.MustParseCardID("song1-1")

	_, err := f.svc.PostponeCard(ctx, f.learnerID, cardID, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDays)

	_, err = f.svc.PostponeCard(ctx, f.learnerID, cardID, 2, nil)
	assert.ErrorIs(t, err, srs.ErrNotStudied)

	answered, err := f.svc.RecordAnswer(ctx, f.learnerID, cardID, domain.GradeGood, nil)
	require.NoError(t, err)

	rec, err := f.svc.PostponeCard(ctx, f.learnerID, cardID, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, answered.NextReview.AddDate(0, 0, 2), rec.NextReview)
	assert.Equal(t, answered.Stability, rec.Stability)
}

func TestGetStatus_Timezone(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	f.clock.Set(time.Date(2024, 6, 3, 23, 30, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := f.svc.RecordAnswer(ctx, f.learnerID, domain.MustParseCardID("song1-1"), domain.GradeGood, nil)
	require.NoError(t, err)

	tokyo := time.FixedZone("UTC+9", 9*60*60)

	utc, err := f.svc.GetStatus(ctx, f.learnerID, "song1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DayKey("2024-06-03"), utc.Day)
	assert.Equal(t, 1, utc.Status.StudiedTodayCount)

	// The review was stamped with the UTC day; in Tokyo it is already the next day.
	local, err := f.svc.GetStatus(ctx, f.learnerID, "song1", tokyo)
	require.NoError(t, err)
	assert.Equal(t, domain.DayKey("2024-06-04"), local.Day)
	assert.Equal(t, 0, local.Status.StudiedTodayCount)
	assert.Equal(t, 0, local.Status.NewIntroducedToday)
}

func TestListReviews(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 20, 3)
	ctx := context.Background()
	cardID := domain.MustParseCardID("song1-1")

	entries, err := f.svc.ListReviews(ctx, f.learnerID, cardID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = f.svc.RecordAnswer(ctx, f.learnerID, cardID, domain.GradeAgain, nil)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.RecordAnswer(ctx, f.learnerID, cardID, domain.GradeGood, nil)
	require.NoError(t, err)

	entries, err = f.svc.ListReviews(ctx, f.learnerID, cardID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.GradeAgain, entries[0].Grade)
	assert.Equal(t, domain.GradeGood, entries[1].Grade)

	_, err = f.svc.ListReviews(ctx, f.learnerID, domain.MustParseCardID("song1-9"))
	assert.ErrorIs(t, err, domain.ErrUnknownCard)
}

func TestNewStudyService_PanicsOnNilDependencies(t *testing.T) {
	t.Parallel()
	srsService := srs.NewDefaultService()

	assert.Panics(t, func() {
		study.NewStudyService(nil, mocks.NewMockCatalogStore(), mocks.NewMockReviewLogStore(),
			srsService, nil, nil, study.Config{}, nil)
	})
	assert.Panics(t, func() {
		study.NewStudyService(mocks.NewMockRecordStore(), nil, mocks.NewMockReviewLogStore(),
			srsService, nil, nil, study.Config{}, nil)
	})
	assert.NotPanics(t, func() {
		study.NewStudyService(mocks.NewMockRecordStore(), mocks.NewMockCatalogStore(),
			mocks.NewMockReviewLogStore(), srsService, nil, nil, study.Config{}, nil)
	})
}
