package mocks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

// MockCatalogStore implements store.CatalogStore for testing
type MockCatalogStore struct {
	// Function fields for customizable behavior
	ListCardsFn  func(ctx context.Context, unitID string) ([]domain.CardID, error)
	UpsertUnitFn func(ctx context.Context, unit *domain.ContentUnit) error

	// Default error returned by every method when set
	Err error

	mu    sync.Mutex
	units map[string]*domain.ContentUnit

	// ListCardsCalls counts ListCards invocations
	ListCardsCalls int
}

// NewMockCatalogStore creates a catalog holding the given units.
func NewMockCatalogStore(units ...*domain.ContentUnit) *MockCatalogStore {
	m := &MockCatalogStore{units: make(map[string]*domain.ContentUnit)}
	for _, u := range units {
		m.units[u.ID] = u
	}
	return m
}

var _ store.CatalogStore = (*MockCatalogStore)(nil)

// ListCards implements store.CatalogStore.
func (m *MockCatalogStore) ListCards(ctx context.Context, unitID string) ([]domain.CardID, error) {
	m.mu.Lock()
	m.ListCardsCalls++
	m.mu.Unlock()

	if m.ListCardsFn != nil {
		return m.ListCardsFn(ctx, unitID)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	unit, ok := m.units[unitID]
	if !ok {
		return nil, store.ErrUnitNotFound
	}
	return unit.CardIDs(), nil
}

// UpsertUnit implements store.CatalogStore.
func (m *MockCatalogStore) UpsertUnit(ctx context.Context, unit *domain.ContentUnit) error {
	if m.UpsertUnitFn != nil {
		return m.UpsertUnitFn(ctx, unit)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := *unit
	c.Keys = slices.Clone(unit.Keys)
	m.units[unit.ID] = &c
	return nil
}

// ListUnits implements store.CatalogStore.
func (m *MockCatalogStore) ListUnits(ctx context.Context) ([]*domain.ContentUnit, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ContentUnit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, &domain.ContentUnit{ID: u.ID, Title: u.Title})
	}
	slices.SortFunc(out, func(a, b *domain.ContentUnit) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}
