package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/redact"
)

// EventTasksChanged is the SSE event name clients listen for.
const EventTasksChanged = "tasks_changed"

// DefaultHeartbeat is used when the hub is created with a zero interval.
const DefaultHeartbeat = 15 * time.Second

const outboundBuffer = 16

// Message is one server-sent event.
type Message struct {
	Event string
	Data  any
}

// TasksChanged is the payload of a tasks_changed event.
type TasksChanged struct {
	Type            events.ChangeType `json:"type"`
	TaskID          *uuid.UUID        `json:"task_id,omitempty"`
	Source          string            `json:"source"`
	CommitTimestamp time.Time         `json:"commit_timestamp"`
}

// Recorder counts connected clients.
type Recorder interface {
	StreamClientConnected()
	StreamClientDisconnected()
}

type noopRecorder struct{}

func (noopRecorder) StreamClientConnected()    {}
func (noopRecorder) StreamClientDisconnected() {}

// Client is a single open event stream.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	outbound chan Message
	done     chan struct{}
	once     sync.Once
}

// Done is closed when the hub drops the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks open streams per user.
type Hub struct {
	mu        sync.RWMutex
	clients   map[uuid.UUID]map[*Client]struct{}
	closed    bool
	heartbeat time.Duration
	recorder  Recorder
	logger    *slog.Logger
}

// Ensure Hub implements events.EventHandler
var _ events.EventHandler = (*Hub)(nil)

// NewHub creates a Hub that pings idle streams every heartbeat.
func NewHub(heartbeat time.Duration, recorder Recorder, logger *slog.Logger) *Hub {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:   make(map[uuid.UUID]map[*Client]struct{}),
		heartbeat: heartbeat,
		recorder:  recorder,
		logger:    logger.With(slog.String("component", "stream_hub")),
	}
}

// Subscribe registers a new stream for userID. It returns nil once the hub
// is closed.
func (h *Hub) Subscribe(userID uuid.UUID) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	client := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		outbound: make(chan Message, outboundBuffer),
		done:     make(chan struct{}),
	}
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[client] = struct{}{}
	h.recorder.StreamClientConnected()

	h.logger.Debug("stream client subscribed",
		slog.String("client_id", client.ID.String()),
		slog.String("user_id", userID.String()))
	return client
}

// Unsubscribe removes client. It is safe to call more than once.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	client.close()
	h.recorder.StreamClientDisconnected()

	h.logger.Debug("stream client unsubscribed", slog.String("client_id", client.ID.String()))
}

// Publish queues msg for every stream of userID. Slow clients drop messages
// rather than block the publisher.
func (h *Hub) Publish(userID uuid.UUID, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		h.offer(client, msg)
	}
}

// Broadcast queues msg for every open stream.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for client := range set {
			h.offer(client, msg)
		}
	}
}

func (h *Hub) offer(client *Client, msg Message) {
	select {
	case client.outbound <- msg:
	default:
		h.logger.Warn("dropping stream message; outbound buffer full",
			slog.String("client_id", client.ID.String()))
	}
}

// HandleEvent implements events.EventHandler.
func (h *Hub) HandleEvent(_ context.Context, event *events.ChangeEvent) error {
	payload := TasksChanged{
		Type:            event.Type,
		Source:          event.Source,
		CommitTimestamp: event.CommitTimestamp,
	}
	if event.TaskID != uuid.Nil {
		taskID := event.TaskID
		payload.TaskID = &taskID
	}
	msg := Message{Event: EventTasksChanged, Data: payload}

	if event.HasOwner() {
		h.Publish(event.UserID, msg)
	} else {
		h.Broadcast(msg)
	}
	return nil
}

// ClientCount returns the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close drops every stream and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, set := range h.clients {
		for client := range set {
			client.close()
			h.recorder.StreamClientDisconnected()
		}
		delete(h.clients, userID)
	}
}

// Serve streams events for userID until the request ends or the hub drops
// the client.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := h.Subscribe(userID)
	if client == nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.Unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Reconnect hint for EventSource, and flushes headers immediately.
	fmt.Fprintf(w, "retry: %d\n\n", h.heartbeat.Milliseconds())
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg := <-client.outbound:
			if err := writeMessage(w, msg); err != nil {
				h.logger.Warn("failed to write stream message", slog.String("error", redact.Error(err)))
				return
			}
			flusher.Flush()
		}
	}
}

func writeMessage(w http.ResponseWriter, msg Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", msg.Event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
	return err
}
