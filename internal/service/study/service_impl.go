package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/clock"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// DefaultConflictRetries is used when Config.ConflictRetries is negative.
const DefaultConflictRetries = 3

// Verify interface compliance at compile time
var _ Service = (*studyService)(nil)

// studyService implements the Service interface.
type studyService struct {
	records    store.RecordStore
	catalog    store.CatalogStore
	reviews    store.ReviewLogStore
	srsService srs.Service
	emitter    events.EventEmitter
	clock      clock.Clock
	cfg        Config
	logger     *slog.Logger
}

// transition computes the next record for a card from its current state.
type transition func(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error)

// NewStudyService creates a new Service implementation. emitter may be nil,
// in which case committed reviews are not published.
func NewStudyService(
	records store.RecordStore,
	catalog store.CatalogStore,
	reviews store.ReviewLogStore,
	srsService srs.Service,
	emitter events.EventEmitter,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) Service {
	if records == nil {
		panic("records cannot be nil")
	}
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = DefaultConflictRetries
	}
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyService{
		records:    records,
		catalog:    catalog,
		reviews:    reviews,
		srsService: srsService,
		emitter:    emitter,
		clock:      clk,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "study_service")),
	}
}

func (s *studyService) location(loc *time.Location) *time.Location {
	if loc != nil {
		return loc
	}
	return s.cfg.DefaultLocation
}

// StartSession implements Service.StartSession.
func (s *studyService) StartSession(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
	studyAgain bool,
	loc *time.Location,
) (*SessionPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	loc = s.location(loc)
	now := s.clock.Now()

	records, total, err := s.loadUnit(ctx, log, learnerID, unitID, now)
	if err != nil {
		return nil, NewServiceError(OpStartSession, "failed to load unit", err)
	}

	status, budget := s.unitStatus(unitID, records, total, now, loc, studyAgain)
	queue := s.srsService.BuildQueue(records, budget, now, loc)

	log.Debug("session started",
		slog.String("learner_id", learnerID.String()),
		slog.String("unit_id", unitID),
		slog.Bool("study_again", studyAgain),
		slog.Int("queue_length", len(queue)),
		slog.String("framing", string(status.Framing)))

	return &SessionPlan{
		UnitStatus: status,
		StudyAgain: studyAgain,
		Queue:      queue,
	}, nil
}

// GetStatus implements Service.GetStatus.
func (s *studyService) GetStatus(
	ctx context.Context,
	learnerID uuid.UUID,
	unitID string,
	loc *time.Location,
) (*UnitStatus, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	loc = s.location(loc)
	now := s.clock.Now()

	records, total, err := s.loadUnit(ctx, log, learnerID, unitID, now)
	if err != nil {
		return nil, NewServiceError(OpGetStatus, "failed to load unit", err)
	}

	status, _ := s.unitStatus(unitID, records, total, now, loc, false)
	return &status, nil
}

// RecordAnswer implements Service.RecordAnswer.
func (s *studyService) RecordAnswer(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	grade domain.Grade,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	if !grade.IsValid() {
		return nil, NewServiceError(OpRecordAnswer, "invalid grade",
			fmt.Errorf("%w: %s", domain.ErrInvalidGrade, grade))
	}
	loc = s.location(loc)

	prior, next, now, err := s.commit(ctx, OpRecordAnswer, learnerID, cardID,
		func(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
			return s.srsService.Update(prior, grade, now, loc)
		})
	if err != nil {
		return nil, err
	}

	s.publishReview(ctx, domain.NewReviewLog(prior, next, grade, domain.ReviewModeNormal, now))
	return s.srsService.Refresh(next, now, loc), nil
}

// RecordStudyAgain implements Service.RecordStudyAgain.
func (s *studyService) RecordStudyAgain(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	loc = s.location(loc)

	prior, next, now, err := s.commit(ctx, OpRecordStudyAgain, learnerID, cardID,
		func(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
			return s.srsService.StudyAgain(prior, now, loc)
		})
	if err != nil {
		return nil, err
	}

	s.publishReview(ctx, domain.NewReviewLog(prior, next, 0, domain.ReviewModeStudyAgain, now))
	return s.srsService.Refresh(next, now, loc), nil
}

// RemoveCard implements Service.RemoveCard.
func (s *studyService) RemoveCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	_, next, now, err := s.commit(ctx, OpRemoveCard, learnerID, cardID, s.srsService.Remove)
	if err != nil {
		return nil, err
	}
	return s.srsService.Refresh(next, now, s.location(loc)), nil
}

// ReinstateCard implements Service.ReinstateCard.
func (s *studyService) ReinstateCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	_, next, now, err := s.commit(ctx, OpReinstateCard, learnerID, cardID, s.srsService.Reinstate)
	if err != nil {
		return nil, err
	}
	return s.srsService.Refresh(next, now, s.location(loc)), nil
}

// PostponeCard implements Service.PostponeCard.
func (s *studyService) PostponeCard(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
	days int,
	loc *time.Location,
) (*domain.LearningRecord, error) {
	if days < 1 {
		return nil, NewServiceError(OpPostponeCard, "invalid days", domain.ErrInvalidDays)
	}

	_, next, now, err := s.commit(ctx, OpPostponeCard, learnerID, cardID,
		func(prior *domain.LearningRecord, now time.Time) (*domain.LearningRecord, error) {
			return s.srsService.PostponeReview(prior, days, now)
		})
	if err != nil {
		return nil, err
	}
	return s.srsService.Refresh(next, now, s.location(loc)), nil
}

// ListReviews implements Service.ListReviews.
func (s *studyService) ListReviews(
	ctx context.Context,
	learnerID uuid.UUID,
	cardID domain.CardID,
) ([]*domain.ReviewLog, error) {
	if err := cardID.Validate(); err != nil {
		return nil, NewServiceError(OpListReviews, "invalid card ID", err)
	}
	if err := s.resolveCard(ctx, cardID); err != nil {
		return nil, NewServiceError(OpListReviews, "card lookup failed", err)
	}

	entries, err := s.reviews.ListForCard(ctx, learnerID, cardID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list review logs",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError(OpListReviews, "failed to list review logs", err)
	}
	return entries, nil
}

// loadUnit returns one record per catalog card of the unit, synthesizing the
// default record for cards the learner has never answered. Stored records
// for cards that are no longer in the catalog are dropped and logged.
func (s *studyService) loadUnit(
	ctx context.Context,
	log *slog.Logger,
	learnerID uuid.UUID,
	unitID string,
	now time.Time,
) ([]*domain.LearningRecord, int, error) {
	ids, err := s.catalog.ListCards(ctx, unitID)
	if err != nil {
		if !errors.Is(err, store.ErrUnitNotFound) {
			log.Error("failed to list catalog cards",
				slog.String("error", err.Error()),
				slog.String("unit_id", unitID))
		}
		return nil, 0, err
	}

	stored, err := s.records.ListForUnit(ctx, learnerID, unitID)
	if err != nil {
		log.Error("failed to list learning records",
			slog.String("error", err.Error()),
			slog.String("learner_id", learnerID.String()),
			slog.String("unit_id", unitID))
		return nil, 0, err
	}

	byID := make(map[domain.CardID]*domain.LearningRecord, len(stored))
	for _, rec := range stored {
		byID[rec.CardID] = rec
	}

	records := make([]*domain.LearningRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			records = append(records, rec)
			delete(byID, id)
			continue
		}
		rec, err := s.srsService.NewRecord(learnerID, id, now)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to synthesize record for %s: %w", id, err)
		}
		records = append(records, rec)
	}

	for id := range byID {
		log.Warn("dropping record for card missing from catalog",
			slog.String("card_id", id.String()),
			slog.String("learner_id", learnerID.String()),
			slog.String("error", domain.ErrUnknownCard.Error()))
	}

	return records, len(ids), nil
}

func (s *studyService) unitStatus(
	unitID string,
	records []*domain.LearningRecord,
	total int,
	now time.Time,
	loc *time.Location,
	studyAgain bool,
) (UnitStatus, srs.SessionBudget) {
	status := s.srsService.Aggregate(records, now, loc)
	budget := s.srsService.Budget(records, now, loc, studyAgain)
	return UnitStatus{
		UnitID:       unitID,
		Day:          domain.DayKeyFor(now, loc),
		Status:       status,
		Framing:      srs.Frame(status, budget),
		NewAllowance: budget.NewAllowance(status.NewCount),
		TotalCards:   total,
	}, budget
}

// resolveCard checks that the catalog knows the card.
func (s *studyService) resolveCard(ctx context.Context, cardID domain.CardID) error {
	ids, err := s.catalog.ListCards(ctx, cardID.UnitID)
	if err != nil {
		if errors.Is(err, store.ErrUnitNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownCard, cardID)
		}
		return err
	}
	if !slices.Contains(ids, cardID) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCard, cardID)
	}
	return nil
}

// commit re-fetches the card, applies fn and writes the result. A lost
// optimistic concurrency race starts over from a fresh read, at most
// ConflictRetries times. Errors from fn are returned without retrying.
func (s *studyService) commit(
	ctx context.Context,
	op string,
	learnerID uuid.UUID,
	cardID domain.CardID,
	fn transition,
) (prior, next *domain.LearningRecord, now time.Time, err error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("operation", op),
		slog.String("learner_id", learnerID.String()),
		slog.String("card_id", cardID.String()))

	if err := cardID.Validate(); err != nil {
		return nil, nil, time.Time{}, NewServiceError(op, "invalid card ID", err)
	}
	if err := s.resolveCard(ctx, cardID); err != nil {
		if errors.Is(err, domain.ErrUnknownCard) {
			log.Warn("card not found in catalog")
		} else {
			log.Error("failed to resolve card", slog.String("error", err.Error()))
		}
		return nil, nil, time.Time{}, NewServiceError(op, "card lookup failed", err)
	}

	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, time.Time{}, NewServiceError(op, "cancelled", err)
		}

		now = s.clock.Now()
		prior, err = s.records.Get(ctx, learnerID, cardID)
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			prior, err = s.srsService.NewRecord(learnerID, cardID, now)
			if err != nil {
				return nil, nil, time.Time{}, NewServiceError(op, "failed to synthesize record", err)
			}
		case err != nil:
			log.Error("failed to get learning record", slog.String("error", err.Error()))
			return nil, nil, time.Time{}, NewServiceError(op, "failed to get learning record", err)
		}

		next, err = fn(prior, now)
		if err != nil {
			log.Debug("transition rejected", slog.String("error", err.Error()))
			return nil, nil, time.Time{}, NewServiceError(op, "transition rejected", err)
		}

		err = s.records.Put(ctx, next)
		if err == nil {
			log.Debug("learning record committed",
				slog.String("lifecycle", next.Lifecycle.String()),
				slog.Time("next_review", next.NextReview),
				slog.Int64("version", next.Version))
			return prior, next, now, nil
		}
		if !errors.Is(err, store.ErrRecordConflict) {
			log.Error("failed to put learning record", slog.String("error", err.Error()))
			return nil, nil, time.Time{}, NewServiceError(op, "failed to put learning record", err)
		}

		log.Info("learning record conflict, retrying", slog.Int("attempt", attempt+1))
	}

	log.Warn("conflict retries exhausted", slog.Int("retries", s.cfg.ConflictRetries))
	return nil, nil, time.Time{}, NewServiceError(op, "conflict retries exhausted",
		fmt.Errorf("%w: %w", ErrRetriesExhausted, store.ErrRecordConflict))
}

// publishReview emits the audit event for a committed review. The review is
// already durable, so a failure here is logged and not returned.
func (s *studyService) publishReview(ctx context.Context, entry *domain.ReviewLog) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewReviewRecordedEvent(entry)
	if err != nil {
		log.Error("failed to build review event",
			slog.String("error", err.Error()),
			slog.String("card_id", entry.CardID.String()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to publish review event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("card_id", entry.CardID.String()))
	}
}
