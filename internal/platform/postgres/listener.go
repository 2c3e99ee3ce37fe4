package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/redact"
)

// ChangeChannel is the NOTIFY channel the tasks trigger publishes on.
const ChangeChannel = "task_changes"

// notification is the JSON payload built by notify_task_changes().
type notification struct {
	Type            string    `json:"type"`
	Schema          string    `json:"schema"`
	Table           string    `json:"table"`
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	CommitTimestamp string    `json:"commit_timestamp"`
}

// ChangeListener receives task changes through LISTEN/NOTIFY on a dedicated
// connection. It implements realtime.Source.
type ChangeListener struct {
	dsn     string
	channel string
	logger  *slog.Logger
}

// NewChangeListener creates a listener for ChangeChannel on the database at dsn.
func NewChangeListener(dsn string, logger *slog.Logger) *ChangeListener {
	return &ChangeListener{
		dsn:     dsn,
		channel: ChangeChannel,
		logger:  logger.With("component", "change_listener"),
	}
}

// Name identifies the source in logs and metrics.
func (l *ChangeListener) Name() string {
	return events.SourcePostgres
}

// Listen connects, issues LISTEN and calls fn for every notification until
// ctx is cancelled or the connection fails. ready is called once LISTEN is
// in effect.
func (l *ChangeListener) Listen(ctx context.Context, ready func(), fn func(*events.ChangeEvent)) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("listening for task changes", "channel", l.channel)
	ready()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		event, err := decodeNotification(n.Payload)
		if err != nil {
			l.logger.Warn("ignoring malformed notification",
				"channel", n.Channel,
				"error", redact.Error(err))
			continue
		}
		fn(event)
	}
}

// decodeNotification turns a NOTIFY payload into a ChangeEvent.
func decodeNotification(payload string) (*events.ChangeEvent, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	changeType, err := events.ParseChangeType(n.Type)
	if err != nil {
		return nil, err
	}

	event := events.NewChangeEvent(changeType, n.Schema, n.Table, n.ID, n.UserID, events.SourcePostgres)
	if n.CommitTimestamp != "" {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999-07"} {
			if ts, err := time.Parse(layout, n.CommitTimestamp); err == nil {
				event.CommitTimestamp = ts.UTC()
				break
			}
		}
	}
	return event, nil
}
