// Package realtime keeps a change-notification source connected and feeds
// its events to the rest of the application.
package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/redact"
)

// Source delivers row changes for the task table.
// Listen blocks until ctx is cancelled or the underlying connection fails. It
// calls ready once the subscription is established.
type Source interface {
	Name() string
	Listen(ctx context.Context, ready func(), fn func(*events.ChangeEvent)) error
}

// Recorder receives subscription metrics.
type Recorder interface {
	RealtimeEvent(source, changeType string)
	RealtimeConnected(source string, connected bool)
}

type noopRecorder struct{}

func (noopRecorder) RealtimeEvent(string, string)    {}
func (noopRecorder) RealtimeConnected(string, bool) {}

// Subscriber re-establishes a Source after failures and forwards every
// change to an emitter.
type Subscriber struct {
	source   Source
	emitter  events.EventEmitter
	delay    time.Duration
	recorder Recorder
	logger   *slog.Logger
}

// NewSubscriber creates a Subscriber that waits delay between attempts.
// A nil recorder disables metrics.
func NewSubscriber(source Source, emitter events.EventEmitter, delay time.Duration, recorder Recorder, logger *slog.Logger) *Subscriber {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Subscriber{
		source:   source,
		emitter:  emitter,
		delay:    delay,
		recorder: recorder,
		logger:   logger.With("component", "realtime_subscriber", "source", source.Name()),
	}
}

// Run listens until ctx is cancelled. It always returns nil once ctx is done.
//
// Changes that happen while the source is down are never delivered, so after
// each failure an ownerless event is emitted; handlers treat it as "anything
// may have changed".
func (s *Subscriber) Run(ctx context.Context) error {
	name := s.source.Name()
	for attempt := 1; ; attempt++ {
		s.logger.Info("starting realtime subscription", "attempt", attempt)

		ready := func() {
			s.logger.Debug("realtime subscription established", "attempt", attempt)
			s.recorder.RealtimeConnected(name, true)
		}
		err := s.source.Listen(ctx, ready, func(event *events.ChangeEvent) {
			s.recorder.RealtimeEvent(name, string(event.Type))
			s.emit(ctx, event)
		})

		s.recorder.RealtimeConnected(name, false)
		if ctx.Err() != nil {
			s.logger.Info("realtime subscription stopped")
			return nil
		}

		s.logger.Warn("realtime subscription lost",
			"error", redact.Error(err),
			"retry_in", s.delay.String())
		s.emit(ctx, resyncEvent(name))

		select {
		case <-ctx.Done():
			s.logger.Info("realtime subscription stopped")
			return nil
		case <-time.After(s.delay):
		}
	}
}

func (s *Subscriber) emit(ctx context.Context, event *events.ChangeEvent) {
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to dispatch change event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", redact.Error(err))
	}
}

// resyncEvent names no row and no owner.
func resyncEvent(source string) *events.ChangeEvent {
	return events.NewChangeEvent(events.ChangeUpdate, "", "", uuid.Nil, uuid.Nil, source)
}
