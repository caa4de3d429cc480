// Package mocks holds hand-written fakes for the store, auth and study
// interfaces, shared by the service, API and event tests.
//
// Store fakes keep their data in memory and honour the same contracts as the
// real stores: MockRecordStore rejects stale versions with
// store.ErrRecordConflict and MockReviewLogStore rejects a repeated entry ID
// with store.ErrDuplicate. Function fields override individual methods:
//
//	records := mocks.NewMockRecordStore()
//	records.PutFn = func(ctx context.Context, rec *domain.LearningRecord) error {
//		return store.ErrRecordConflict
//	}
package mocks
