package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// RecordStore defines the interface for learning record persistence.
// Records are keyed by (learner ID, card ID) and are never deleted.
type RecordStore interface {
	// ListForUnit returns every stored record of the learner for the content unit.
	// An empty slice, not an error, is returned when none exist.
	ListForUnit(ctx context.Context, learnerID uuid.UUID, unitID string) ([]*domain.LearningRecord, error)

	// Get retrieves a single record.
	// Returns ErrRecordNotFound if the learner has never answered the card.
	Get(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID) (*domain.LearningRecord, error)

	// Put atomically upserts the record with optimistic concurrency.
	// A record with Version 0 is inserted; any other record is updated only if
	// the stored version still equals rec.Version. On success rec.Version is
	// incremented. Returns ErrRecordConflict when the check fails.
	Put(ctx context.Context, rec *domain.LearningRecord) error

	// ListStale returns up to limit records whose cached lifecycle is out of
	// date at now: learning records whose next review has passed and due
	// records pushed back into the future. Day counters are not considered;
	// they depend on the learner's timezone and are projected on read.
	ListStale(ctx context.Context, now time.Time, limit int) ([]*domain.LearningRecord, error)

	// WithTx returns a new RecordStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) RecordStore
}

// CatalogStore lists the cards of content units. The scheduler never inspects
// card content.
type CatalogStore interface {
	// ListCards returns the card IDs of the unit in catalog order.
	// Returns ErrUnitNotFound if the unit does not exist.
	ListCards(ctx context.Context, unitID string) ([]domain.CardID, error)

	// UpsertUnit creates or replaces a unit and its card keys.
	UpsertUnit(ctx context.Context, unit *domain.ContentUnit) error

	// ListUnits returns every unit without its keys.
	ListUnits(ctx context.Context) ([]*domain.ContentUnit, error)
}

// ReviewLogStore persists the review audit trail.
type ReviewLogStore interface {
	// Append stores a review log entry.
	Append(ctx context.Context, entry *domain.ReviewLog) error

	// ListForCard returns the learner's log entries for the card, oldest first.
	ListForCard(ctx context.Context, learnerID uuid.UUID, cardID domain.CardID) ([]*domain.ReviewLog, error)
}
