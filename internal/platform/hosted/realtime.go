package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/redact"
)

const (
	phxJoin      = "phx_join"
	phxReply     = "phx_reply"
	phxError     = "phx_error"
	phxClose     = "phx_close"
	phxHeartbeat = "heartbeat"

	eventPostgresChanges = "postgres_changes"

	defaultHeartbeat = 30 * time.Second
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

var (
	// ErrSourceClosed is returned by Listen when the server ends the socket
	// cleanly.
	ErrSourceClosed = errors.New("realtime socket closed")

	// ErrSourceSilent is returned by Listen when the server stops answering,
	// heartbeats included, for two heartbeat intervals.
	ErrSourceSilent = errors.New("realtime socket silent")
)

// phoenixMessage is a single Phoenix channel frame.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// changeData is the row change carried by a postgres_changes frame.
type changeData struct {
	Type            string         `json:"type"`
	EventType       string         `json:"eventType"`
	Schema          string         `json:"schema"`
	Table           string         `json:"table"`
	CommitTimestamp string         `json:"commit_timestamp"`
	Record          map[string]any `json:"record"`
	OldRecord       map[string]any `json:"old_record"`
}

// RealtimeSource subscribes to row changes of one table over the realtime
// websocket. It implements realtime.Source.
type RealtimeSource struct {
	client    *Client
	schema    string
	table     string
	heartbeat time.Duration
	dialer    *websocket.Dialer
	logger    *slog.Logger
}

// NewRealtimeSource creates a source for schema.table changes.
// A zero heartbeat uses the service default of 30s.
func NewRealtimeSource(client *Client, schema, table string, heartbeat time.Duration, logger *slog.Logger) *RealtimeSource {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &RealtimeSource{
		client:    client,
		schema:    schema,
		table:     table,
		heartbeat: heartbeat,
		dialer:    &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger:    logger.With("component", "hosted_realtime"),
	}
}

// Name identifies the source in logs and metrics.
func (s *RealtimeSource) Name() string {
	return events.SourceHosted
}

// Topic returns the channel topic joined for the table.
func (s *RealtimeSource) Topic() string {
	return fmt.Sprintf("realtime:%s:%s", s.schema, s.table)
}

func (s *RealtimeSource) socketURL() string {
	q := url.Values{}
	q.Set("apikey", s.client.config.AnonKey)
	q.Set("vsn", "1.0.0")
	return s.client.realtimeURL + "?" + q.Encode()
}

// accessToken authorizes the channel join. The service key lets the socket
// see every user's rows; without it only anonymous-visible rows arrive.
func (s *RealtimeSource) accessToken() string {
	if s.client.config.ServiceKey != "" {
		return s.client.config.ServiceKey
	}
	return s.client.config.AnonKey
}

// Listen connects, joins the table channel and calls fn for every change
// until ctx is cancelled or the connection fails. ready is called once the
// server accepts the join.
func (s *RealtimeSource) Listen(ctx context.Context, ready func(), fn func(*events.ChangeEvent)) error {
	conn, _, err := s.dialer.DialContext(ctx, s.socketURL(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	sess := &realtimeSession{conn: conn}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop when the caller goes away.
	stop := context.AfterFunc(ctx, func() {
		_ = sess.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	})
	defer stop()

	joinRef := sess.nextRef()
	join := map[string]any{
		"topic":    s.Topic(),
		"event":    phxJoin,
		"ref":      joinRef,
		"join_ref": joinRef,
		"payload": map[string]any{
			"config": map[string]any{
				"broadcast": map[string]any{"self": false},
				"presence":  map[string]any{"key": ""},
				"postgres_changes": []map[string]string{
					{"event": "*", "schema": s.schema, "table": s.table},
				},
			},
			"access_token": s.accessToken(),
		},
	}
	if err := sess.writeJSON(join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	hbDone := make(chan struct{})
	defer close(hbDone)
	go s.heartbeatLoop(sess, hbDone)

	// Every heartbeat is answered, so a live server is never quiet for long.
	silence := 2 * s.heartbeat
	for {
		_ = conn.SetReadDeadline(time.Now().Add(silence))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrSourceClosed
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("%w: no frames for %s", ErrSourceSilent, silence)
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg phoenixMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("ignoring malformed realtime frame", "error", redact.Error(err))
			continue
		}

		if err := s.handleMessage(&msg, joinRef, ready, fn); err != nil {
			return err
		}
	}
}

func (s *RealtimeSource) handleMessage(msg *phoenixMessage, joinRef string, ready func(), fn func(*events.ChangeEvent)) error {
	switch msg.Event {
	case phxReply:
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}
		if msg.Ref != nil && *msg.Ref == joinRef {
			if reply.Status != "ok" {
				return fmt.Errorf("join %s rejected: %s", s.Topic(), string(reply.Response))
			}
			s.logger.Info("subscribed to table changes", "topic", s.Topic())
			ready()
		}
		return nil

	case phxError, phxClose:
		if msg.Topic == s.Topic() {
			return fmt.Errorf("channel %s closed by server (%s)", s.Topic(), msg.Event)
		}
		return nil

	case eventPostgresChanges:
		var payload struct {
			Data changeData `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.logger.Warn("ignoring malformed change payload", "error", redact.Error(err))
			return nil
		}
		s.dispatch(payload.Data, fn)
		return nil

	case "INSERT", "UPDATE", "DELETE":
		// Older servers send the change type as the event name.
		var data changeData
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			s.logger.Warn("ignoring malformed change payload", "error", redact.Error(err))
			return nil
		}
		if data.Type == "" {
			data.Type = msg.Event
		}
		s.dispatch(data, fn)
		return nil

	default:
		return nil
	}
}

func (s *RealtimeSource) dispatch(data changeData, fn func(*events.ChangeEvent)) {
	event, err := toChangeEvent(data, s.schema, s.table)
	if err != nil {
		s.logger.Warn("ignoring change with unknown type", "error", redact.Error(err))
		return
	}
	fn(event)
}

func (s *RealtimeSource) heartbeatLoop(sess *realtimeSession, done <-chan struct{}) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			msg := map[string]any{
				"topic":   "phoenix",
				"event":   phxHeartbeat,
				"payload": map[string]any{},
				"ref":     sess.nextRef(),
			}
			if err := sess.writeJSON(msg); err != nil {
				s.logger.Warn("heartbeat failed", "error", redact.Error(err))
				_ = sess.conn.Close()
				return
			}
		}
	}
}

// toChangeEvent converts a row change into a ChangeEvent. Owner and row ID
// come from the new record, or from the old one for deletes.
func toChangeEvent(data changeData, defaultSchema, defaultTable string) (*events.ChangeEvent, error) {
	raw := data.Type
	if raw == "" {
		raw = data.EventType
	}
	changeType, err := events.ParseChangeType(raw)
	if err != nil {
		return nil, err
	}

	schema, table := data.Schema, data.Table
	if schema == "" {
		schema = defaultSchema
	}
	if table == "" {
		table = defaultTable
	}

	taskID := uuidField(data.Record, "id")
	if taskID == uuid.Nil {
		taskID = uuidField(data.OldRecord, "id")
	}
	userID := uuidField(data.Record, "user_id")
	if userID == uuid.Nil {
		userID = uuidField(data.OldRecord, "user_id")
	}

	event := events.NewChangeEvent(changeType, schema, table, taskID, userID, events.SourceHosted)
	if ts, err := time.Parse(time.RFC3339, data.CommitTimestamp); err == nil {
		event.CommitTimestamp = ts.UTC()
	}
	return event, nil
}

func uuidField(record map[string]any, key string) uuid.UUID {
	if record == nil {
		return uuid.Nil
	}
	raw, ok := record[key].(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// realtimeSession serializes writes to one websocket connection.
type realtimeSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
	ref  int
}

func (s *realtimeSession) nextRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref++
	return strconv.Itoa(s.ref)
}

func (s *realtimeSession) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *realtimeSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(messageType, data)
}
