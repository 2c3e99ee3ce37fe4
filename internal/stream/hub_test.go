package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	connected atomic.Int64
}

func (r *countingRecorder) StreamClientConnected()    { r.connected.Add(1) }
func (r *countingRecorder) StreamClientDisconnected() { r.connected.Add(-1) }

func newTestHub(t *testing.T) (*Hub, *countingRecorder) {
	t.Helper()
	log, _ := logger.NewTestLogger()
	rec := &countingRecorder{}
	return NewHub(time.Hour, rec, log), rec
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.outbound:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.outbound:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub, rec := newTestHub(t)
	userID := uuid.New()

	a := hub.Subscribe(userID)
	b := hub.Subscribe(userID)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, 2, hub.ClientCount())
	assert.EqualValues(t, 2, rec.connected.Load())

	hub.Unsubscribe(a)
	hub.Unsubscribe(a)
	assert.Equal(t, 1, hub.ClientCount())
	assert.EqualValues(t, 1, rec.connected.Load())

	select {
	case <-a.Done():
	default:
		t.Fatal("unsubscribed client should be done")
	}
}

func TestHub_HandleEvent_OwnedChangeGoesToOwnerOnly(t *testing.T) {
	hub, _ := newTestHub(t)
	owner, other := uuid.New(), uuid.New()
	ownerClient := hub.Subscribe(owner)
	otherClient := hub.Subscribe(other)

	taskID := uuid.New()
	event := events.NewChangeEvent(events.ChangeInsert, "public", "tasks", taskID, owner, events.SourceHosted)
	require.NoError(t, hub.HandleEvent(context.Background(), event))

	msg := receive(t, ownerClient)
	assert.Equal(t, EventTasksChanged, msg.Event)
	payload, ok := msg.Data.(TasksChanged)
	require.True(t, ok)
	assert.Equal(t, events.ChangeInsert, payload.Type)
	require.NotNil(t, payload.TaskID)
	assert.Equal(t, taskID, *payload.TaskID)
	assert.Equal(t, events.SourceHosted, payload.Source)

	assertNoMessage(t, otherClient)
}

func TestHub_HandleEvent_OwnerlessChangeGoesToEveryone(t *testing.T) {
	hub, _ := newTestHub(t)
	a := hub.Subscribe(uuid.New())
	b := hub.Subscribe(uuid.New())

	event := events.NewChangeEvent(events.ChangeUpdate, "public", "tasks", uuid.Nil, uuid.Nil, events.SourcePostgres)
	require.NoError(t, hub.HandleEvent(context.Background(), event))

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		payload := msg.Data.(TasksChanged)
		assert.Nil(t, payload.TaskID)
	}
}

func TestHub_PublishDropsWhenBufferFull(t *testing.T) {
	hub, _ := newTestHub(t)
	userID := uuid.New()
	c := hub.Subscribe(userID)

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Publish(userID, Message{Event: "x", Data: i})
	}
	assert.Len(t, c.outbound, outboundBuffer)
}

func TestHub_Close(t *testing.T) {
	hub, rec := newTestHub(t)
	c := hub.Subscribe(uuid.New())

	hub.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("client should be done after Close")
	}
	assert.Zero(t, hub.ClientCount())
	assert.Zero(t, rec.connected.Load())
	assert.Nil(t, hub.Subscribe(uuid.New()))

	hub.Unsubscribe(c)
	assert.Zero(t, rec.connected.Load())
}

func TestHub_Serve(t *testing.T) {
	hub, _ := newTestHub(t)
	userID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, userID)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "retry: "))

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	taskID := uuid.New()
	event := events.NewChangeEvent(events.ChangeInsert, "public", "tasks", taskID, userID, events.SourceLocal)
	require.NoError(t, hub.HandleEvent(context.Background(), event))

	var eventLine, dataLine string
	for eventLine == "" || dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, EventTasksChanged, eventLine)

	var payload TasksChanged
	require.NoError(t, json.Unmarshal([]byte(dataLine), &payload))
	require.NotNil(t, payload.TaskID)
	assert.Equal(t, taskID, *payload.TaskID)
	assert.Equal(t, events.ChangeInsert, payload.Type)

	hub.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_ServeAfterClose(t *testing.T) {
	hub, _ := newTestHub(t)
	hub.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/stream", nil)
	hub.Serve(rec, req, uuid.New())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
