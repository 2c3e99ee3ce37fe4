package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChangeType is the kind of row change that produced an event.
type ChangeType string

// Known change types, named as the database reports them.
const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ParseChangeType normalizes a change type reported by a backend.
func ParseChangeType(raw string) (ChangeType, error) {
	switch ChangeType(strings.ToUpper(strings.TrimSpace(raw))) {
	case ChangeInsert:
		return ChangeInsert, nil
	case ChangeUpdate:
		return ChangeUpdate, nil
	case ChangeDelete:
		return ChangeDelete, nil
	default:
		return "", fmt.Errorf("unknown change type %q", raw)
	}
}

// Event sources.
const (
	SourceLocal    = "local"
	SourceHosted   = "hosted"
	SourcePostgres = "postgres"
)

// ChangeEvent describes a single change to a row in a watched table.
type ChangeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is the kind of change
	Type ChangeType `json:"type"`

	// Schema and Table identify the changed relation
	Schema string `json:"schema"`
	Table  string `json:"table"`

	// TaskID is the changed row, when the backend reported it
	TaskID uuid.UUID `json:"task_id"`

	// UserID owns the changed row. uuid.Nil means unknown.
	UserID uuid.UUID `json:"user_id"`

	// CommitTimestamp is when the change was committed
	CommitTimestamp time.Time `json:"commit_timestamp"`

	// Source names the component that observed the change
	Source string `json:"source"`
}

// HasOwner reports whether the event names the owning user.
func (e *ChangeEvent) HasOwner() bool {
	return e.UserID != uuid.Nil
}

// NewChangeEvent creates a ChangeEvent for a change observed by source.
func NewChangeEvent(changeType ChangeType, schema, table string, taskID, userID uuid.UUID, source string) *ChangeEvent {
	return &ChangeEvent{
		ID:              uuid.New(),
		Type:            changeType,
		Schema:          schema,
		Table:           table,
		TaskID:          taskID,
		UserID:          userID,
		CommitTimestamp: time.Now().UTC(),
		Source:          source,
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ChangeEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *ChangeEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ChangeEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ChangeEvent) error
}
