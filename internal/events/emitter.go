package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskboard/internal/redact"
)

// DispatchRecorder receives one call per emitted event with the number of
// handlers that failed on it.
type DispatchRecorder interface {
	EventDispatched(source string, failed int)
}

type noopRecorder struct{}

func (noopRecorder) EventDispatched(string, int) {}

// InMemoryEventEmitter stores registered handlers in memory and dispatches
// change events to them synchronously, in registration order.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	recorder DispatchRecorder
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
// A nil recorder disables dispatch accounting.
func NewInMemoryEventEmitter(recorder DispatchRecorder, logger *slog.Logger) *InMemoryEventEmitter {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		recorder: recorder,
		logger:   logger.With("component", "in_memory_event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// EmitEvent publishes the given event to all registered handlers.
// If any handler returns an error, the event will still be sent to all other handlers,
// and the first error encountered will be returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *ChangeEvent) error {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	log := e.logger.With("event_id", event.ID, "event_type", event.Type, "source", event.Source)
	if event.HasOwner() {
		log.Debug("emitting change event",
			"table", event.Table,
			"task_id", event.TaskID,
			"user_id", event.UserID,
			"handler_count", len(handlers))
	} else {
		// Ownerless events make every handler drop all state it holds.
		log.Info("emitting change event for all users",
			"table", event.Table,
			"handler_count", len(handlers))
	}

	if len(handlers) == 0 {
		log.Warn("no handlers registered for change event")
		e.recorder.EventDispatched(event.Source, 0)
		return nil
	}

	var firstErr error
	failed := 0
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			failed++
			log.Error("handler failed to process change event",
				"error", redact.Error(err),
				"handler_index", i)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	e.recorder.EventDispatched(event.Source, failed)
	return firstErr
}
