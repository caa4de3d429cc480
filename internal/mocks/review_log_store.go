package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

// MockReviewLogStore implements store.ReviewLogStore for testing
type MockReviewLogStore struct {
	AppendFn      func(ctx context.Context, entry *domain.ReviewLog) error
	ListForCardFn func(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID) ([]*domain.ReviewLog, error)

	// Default error returned by every method when set
	Err error

	mu      sync.Mutex
	entries []*domain.ReviewLog
}

// NewMockReviewLogStore creates an empty review log.
func NewMockReviewLogStore() *MockReviewLogStore {
	return &MockReviewLogStore{}
}

var _ store.ReviewLogStore = (*MockReviewLogStore)(nil)

// Append implements store.ReviewLogStore.
func (m *MockReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLog) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, entry)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == entry.ID {
			return store.ErrDuplicate
		}
	}
	c := *entry
	m.entries = append(m.entries, &c)
	return nil
}

// ListForCard implements store.ReviewLogStore.
func (m *MockReviewLogStore) ListForCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) ([]*domain.ReviewLog, error) {
	if m.ListForCardFn != nil {
		return m.ListForCardFn(ctx, learnerID, cardID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.ReviewLog{}
	for _, e := range m.entries {
		if e.LearnerID == learnerID && e.CardID == cardID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// Entries returns every appended entry in append order.
func (m *MockReviewLogStore) Entries() []*domain.ReviewLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ReviewLog, len(m.entries))
	copy(out, m.entries)
	return out
}
