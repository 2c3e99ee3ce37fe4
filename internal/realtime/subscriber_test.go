package realtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource delivers one batch of events per Listen call, then fails
// or blocks according to its script.
type scriptedSource struct {
	mu           sync.Mutex
	dialFailures int
	batches      [][]*events.ChangeEvent
	calls        int
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Listen(ctx context.Context, ready func(), fn func(*events.ChangeEvent)) error {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()

	if idx < s.dialFailures {
		return errors.New("dial failed")
	}
	idx -= s.dialFailures

	ready()
	if idx < len(s.batches) {
		for _, e := range s.batches[idx] {
			fn(e)
		}
		return errors.New("connection dropped")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type collectingEmitter struct {
	mu     sync.Mutex
	events []*events.ChangeEvent
}

func (c *collectingEmitter) EmitEvent(_ context.Context, e *events.ChangeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectingEmitter) Events() []*events.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*events.ChangeEvent, len(c.events))
	copy(out, c.events)
	return out
}

type recordingRecorder struct {
	mu        sync.Mutex
	events    int
	connected []bool
}

func (r *recordingRecorder) RealtimeEvent(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
}

func (r *recordingRecorder) RealtimeConnected(_ string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = append(r.connected, connected)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscriber_ForwardsAndReconnects(t *testing.T) {
	userID := uuid.New()
	first := events.NewChangeEvent(events.ChangeInsert, "public", "tasks", uuid.New(), userID, "scripted")
	second := events.NewChangeEvent(events.ChangeUpdate, "public", "tasks", uuid.New(), userID, "scripted")

	source := &scriptedSource{batches: [][]*events.ChangeEvent{{first}, {second}}}
	emitter := &collectingEmitter{}
	recorder := &recordingRecorder{}
	sub := NewSubscriber(source, emitter, 5*time.Millisecond, recorder, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool { return source.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	got := emitter.Events()
	require.Len(t, got, 4)
	assert.Same(t, first, got[0])
	assert.False(t, got[1].HasOwner(), "resync after first failure")
	assert.Same(t, second, got[2])
	assert.False(t, got[3].HasOwner(), "resync after second failure")

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, 2, recorder.events)
	assert.Equal(t, false, recorder.connected[len(recorder.connected)-1])
}

func TestSubscriber_StopsDuringDelay(t *testing.T) {
	source := &scriptedSource{batches: [][]*events.ChangeEvent{{}}}
	sub := NewSubscriber(source, &collectingEmitter{}, time.Hour, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool { return source.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Equal(t, 1, source.Calls())
}

func TestSubscriber_EmitterErrorsDoNotStopSubscription(t *testing.T) {
	userID := uuid.New()
	event := events.NewChangeEvent(events.ChangeInsert, "public", "tasks", uuid.New(), userID, "scripted")
	source := &scriptedSource{batches: [][]*events.ChangeEvent{{event, event}}}

	var calls int
	var mu sync.Mutex
	emitter := emitterFunc(func(context.Context, *events.ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("handler failed")
	})
	sub := NewSubscriber(source, emitter, time.Millisecond, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool { return source.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestSubscriber_ConnectedOnlyOnceEstablished(t *testing.T) {
	source := &scriptedSource{dialFailures: 2}
	recorder := &recordingRecorder{}
	sub := NewSubscriber(source, &collectingEmitter{}, time.Millisecond, recorder, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	require.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return len(recorder.connected) == 3
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []bool{false, false, true, false}, recorder.connected)
}

type emitterFunc func(ctx context.Context, e *events.ChangeEvent) error

func (f emitterFunc) EmitEvent(ctx context.Context, e *events.ChangeEvent) error { return f(ctx, e) }
