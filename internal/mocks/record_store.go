package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

type recordKey struct {
	learnerID uuid.UUID
	cardID    domain.CardID
}

// MockRecordStore implements store.RecordStore for testing. Without Fn
// overrides it behaves like a real store: records are kept in memory and Put
// enforces the optimistic version check.
type MockRecordStore struct {
	// Function fields for customizable behavior
	ListForUnitFn func(ctx context.Context, learnerID uuid.UUID, unitID string) ([]*domain.LearningRecord, error)
	GetFn         func(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID) (*domain.LearningRecord, error)
	PutFn         func(ctx context.Context, rec *domain.LearningRecord) error
	ListStaleFn   func(ctx context.Context, now time.Time, limit int) ([]*domain.LearningRecord, error)

	// Default error returned by every method when set
	Err error

	mu      sync.Mutex
	records map[recordKey]*domain.LearningRecord

	// Call tracking for verification
	PutCalls int
	GetCalls int
}

// NewMockRecordStore creates an empty in-memory record store.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{records: make(map[recordKey]*domain.LearningRecord)}
}

var _ store.RecordStore = (*MockRecordStore)(nil)

// Seed stores copies of the given records as if they had been written
// before, assigning version 1 to records that have none.
func (m *MockRecordStore) Seed(records ...*domain.LearningRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		c := rec.Clone()
		if c.Version == 0 {
			c.Version = 1
		}
		m.records[recordKey{c.LearnerID, c.CardID}] = c
	}
}

// Stored returns a copy of the stored record, or nil.
func (m *MockRecordStore) Stored(learnerID uuid.UUID, cardID domain.CardID) *domain.LearningRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[recordKey{learnerID, cardID}]; ok {
		return rec.Clone()
	}
	return nil
}

// ListForUnit implements store.RecordStore.
func (m *MockRecordStore) ListForUnit(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
) ([]*domain.LearningRecord, error) {
	if m.ListForUnitFn != nil {
		return m.ListForUnitFn(ctx, learnerID, unitID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.LearningRecord{}
	for k, rec := range m.records {
		if k.learnerID == learnerID && k.cardID.UnitID == unitID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Get implements store.RecordStore.
func (m *MockRecordStore) Get(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) (*domain.LearningRecord, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFn != nil {
		return m.GetFn(ctx, learnerID, cardID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	if rec := m.Stored(learnerID, cardID); rec != nil {
		return rec, nil
	}
	return nil, store.ErrRecordNotFound
}

// Put implements store.RecordStore.
func (m *MockRecordStore) Put(ctx context.Context, rec *domain.LearningRecord) error {
	m.mu.Lock()
	m.PutCalls++
	m.mu.Unlock()

	if m.PutFn != nil {
		return m.PutFn(ctx, rec)
	}
	return m.put(rec)
}

// PutDirect applies the default Put behavior, bypassing PutFn. Tests use it
// from inside PutFn to simulate a concurrent writer.
func (m *MockRecordStore) PutDirect(rec *domain.LearningRecord) error {
	return m.put(rec)
}

func (m *MockRecordStore) put(rec *domain.LearningRecord) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{rec.LearnerID, rec.CardID}
	current, exists := m.records[key]
	switch {
	case rec.Version == 0 && exists:
		return store.ErrRecordConflict
	case rec.Version != 0 && (!exists || current.Version != rec.Version):
		return store.ErrRecordConflict
	}

	rec.Version++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	m.records[key] = rec.Clone()
	return nil
}

// ListStale implements store.RecordStore.
func (m *MockRecordStore) ListStale(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.LearningRecord, error) {
	if m.ListStaleFn != nil {
		return m.ListStaleFn(ctx, now, limit)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.LearningRecord{}
	for _, rec := range m.records {
		if len(out) >= limit {
			break
		}
		stale := (rec.Lifecycle == domain.LifecycleLearning && !now.Before(rec.NextReview)) ||
			(rec.Lifecycle == domain.LifecycleDue && now.Before(rec.NextReview))
		if stale {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// WithTx implements store.RecordStore. The mock has no transactions and
// returns itself.
func (m *MockRecordStore) WithTx(_ *sql.Tx) store.RecordStore {
	return m
}
