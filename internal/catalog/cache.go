package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

// Default cache settings used when the configured values are not positive.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 5 * time.Minute
)

// CacheStats reports cache effectiveness. Evictions counts entries dropped
// for capacity or age; Invalidations counts entries dropped by a write or a
// purge.
type CacheStats struct {
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
	Size          int
}

// Cache is a read-through store.CatalogStore that keeps recently listed units
// in a size-bounded LRU whose entries expire after a TTL. Writes go to the
// underlying store and invalidate the unit.
type Cache struct {
	next   store.CatalogStore
	lru    *expirable.LRU[string, []domain.CardID]
	logger *slog.Logger

	// invalidating holds the unit IDs this cache is dropping itself, so the
	// eviction callback can tell them apart from capacity and TTL evictions.
	invalidating sync.Map

	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	invalidations atomic.Uint64
}

var _ store.CatalogStore = (*Cache)(nil)

// NewCache wraps next with an LRU of the given size and TTL.
func NewCache(next store.CatalogStore, size int, ttl time.Duration, logger *slog.Logger) *Cache {
	if next == nil {
		panic("catalog store cannot be nil")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		next:   next,
		logger: logger.With(slog.String("component", "catalog_cache")),
	}
	c.lru = expirable.NewLRU[string, []domain.CardID](size, c.handleEviction, ttl)
	return c
}

func (c *Cache) handleEviction(unitID string, _ []domain.CardID) {
	if _, ok := c.invalidating.LoadAndDelete(unitID); ok {
		c.invalidations.Add(1)
		c.logger.Debug("catalog unit invalidated", slog.String("unit_id", unitID))
		return
	}
	c.evictions.Add(1)
	c.logger.Debug("catalog unit evicted", slog.String("unit_id", unitID))
}

// invalidate drops unitID without counting it as an eviction.
func (c *Cache) invalidate(unitID string) {
	c.invalidating.Store(unitID, struct{}{})
	c.lru.Remove(unitID)
	c.invalidating.Delete(unitID)
}

// ListCards implements store.CatalogStore.ListCards.
// The returned slice is a copy and may be modified by the caller.
func (c *Cache) ListCards(ctx context.Context, unitID string) ([]domain.CardID, error) {
	if ids, ok := c.lru.Get(unitID); ok {
		c.hits.Add(1)
		return slices.Clone(ids), nil
	}
	c.misses.Add(1)

	ids, err := c.next.ListCards(ctx, unitID)
	if err != nil {
		return nil, err
	}
	c.lru.Add(unitID, slices.Clone(ids))
	return ids, nil
}

// UpsertUnit implements store.CatalogStore.UpsertUnit
func (c *Cache) UpsertUnit(ctx context.Context, unit *domain.ContentUnit) error {
	if err := c.next.UpsertUnit(ctx, unit); err != nil {
		return err
	}
	if unit != nil {
		c.invalidate(unit.ID)
	}
	return nil
}

// ListUnits implements store.CatalogStore.ListUnits. Unit listings are not cached.
func (c *Cache) ListUnits(ctx context.Context) ([]*domain.ContentUnit, error) {
	return c.next.ListUnits(ctx)
}

// Purge drops every cached unit.
func (c *Cache) Purge() {
	for _, unitID := range c.lru.Keys() {
		c.invalidate(unitID)
	}
	// Keys skips entries that expired but were not yet reaped.
	c.lru.Purge()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Size:          c.lru.Len(),
	}
}
