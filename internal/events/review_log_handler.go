package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// ReviewLogHandler appends ReviewRecorded events to the review log.
type ReviewLogHandler struct {
	logs   store.ReviewLogStore
	logger *slog.Logger
}

var _ EventHandler = (*ReviewLogHandler)(nil)

// NewReviewLogHandler creates a handler writing to logs.
func NewReviewLogHandler(logs store.ReviewLogStore, logger *slog.Logger) *ReviewLogHandler {
	if logs == nil {
		panic("review log store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewLogHandler{
		logs:   logs,
		logger: logger.With(slog.String("component", "review_log_handler")),
	}
}

// NewReviewRecordedEvent wraps a review log entry in an event envelope.
func NewReviewRecordedEvent(entry *domain.ReviewLog) (*Event, error) {
	return NewEvent(TypeReviewRecorded, entry)
}

// HandleEvent implements EventHandler.
func (h *ReviewLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	if event.Type != TypeReviewRecorded {
		return nil
	}

	var entry domain.ReviewLog
	if err := event.UnmarshalPayload(&entry); err != nil {
		return fmt.Errorf("failed to decode review recorded payload: %w", err)
	}

	if err := h.logs.Append(ctx, &entry); err != nil {
		return fmt.Errorf("failed to append review log: %w", err)
	}

	logger.FromContextOrDefault(ctx, h.logger).Debug("review logged",
		slog.String("review_id", entry.ID.String()),
		slog.String("card_id", entry.CardID.String()),
		slog.String("mode", string(entry.Mode)))
	return nil
}
