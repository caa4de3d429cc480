package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/scry-study/internal/redact"
)

// InMemoryEventEmitter dispatches events to registered handlers on the
// caller's goroutine, in registration order.
type InMemoryEventEmitter struct {
	mu            sync.RWMutex
	subscriptions []subscription
	logger        *slog.Logger
}

// subscription is a handler plus the event types it wants. An empty type
// set receives every event.
type subscription struct {
	handler EventHandler
	types   map[string]struct{}
}

func (s subscription) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With(slog.String("component", "event_emitter")),
	}
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// RegisterHandler subscribes handler to the given event types, or to all
// events when none are given.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...string) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscriptions = append(e.subscriptions, sub)
	e.logger.Debug("registered event handler",
		slog.Int("handler_count", len(e.subscriptions)),
		slog.Any("event_types", types))
}

// EmitEvent delivers event to every interested handler. A failing handler
// does not stop delivery; all handler errors are joined and returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	e.mu.RLock()
	subs := make([]subscription, 0, len(e.subscriptions))
	for _, s := range e.subscriptions {
		if s.wants(event.Type) {
			subs = append(subs, s)
		}
	}
	e.mu.RUnlock()

	log := e.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	if len(subs) == 0 {
		log.Warn("no handlers registered for event")
		return nil
	}
	log.Debug("emitting event", slog.Int("handler_count", len(subs)))

	var errs []error
	for i, s := range subs {
		if err := s.handler.HandleEvent(ctx, event); err != nil {
			log.Error("handler failed to process event",
				slog.Int("handler_index", i),
				slog.String("error", redact.Error(err)))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
