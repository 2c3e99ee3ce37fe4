package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority ranks how urgent a task is.
type Priority string

// Known priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every valid priority in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Status is the workflow state of a task.
type Status string

// Known statuses.
const (
	StatusToDo          Status = "To do"
	StatusInProgress    Status = "In progress"
	StatusPendingReview Status = "Pending Review"
	StatusDone          Status = "Done"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusPendingReview, StatusDone}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParsePriority resolves raw to a Priority. Exact matches win; otherwise the
// comparison ignores case and surrounding space.
func ParsePriority(raw string) (Priority, error) {
	if p := Priority(raw); p.Valid() {
		return p, nil
	}
	trimmed := strings.TrimSpace(raw)
	for _, p := range Priorities {
		if strings.EqualFold(trimmed, string(p)) {
			return p, nil
		}
	}
	return "", NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
}

// ParseStatus resolves raw to a Status, with the same matching rules as
// ParsePriority.
func ParseStatus(raw string) (Status, error) {
	if s := Status(raw); s.Valid() {
		return s, nil
	}
	trimmed := strings.TrimSpace(raw)
	for _, s := range Statuses {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", NewValidationError("status", "must be one of To do, In progress, Pending Review, Done", ErrInvalidStatus)
}

// Task is a tracked work item owned by a single user.
type Task struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	DateRequested    time.Time `json:"date_requested"`
	TaskCreator      string    `json:"task_creator"`
	Client           string    `json:"client"`
	Description      string    `json:"description"`
	PageLink         string    `json:"page_link"`
	LoginDetails     string    `json:"login_details"`
	Priority         Priority  `json:"priority"`
	Deadline         time.Time `json:"deadline"`
	Status           Status    `json:"status"`
	Notes            string    `json:"notes"`
	ClientDiscussion string    `json:"client_discussion"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TaskInput carries the user-editable fields of a task, as submitted by the
// create form.
type TaskInput struct {
	DateRequested    time.Time
	TaskCreator      string
	Client           string
	Description      string
	PageLink         string
	LoginDetails     string
	Priority         Priority
	Deadline         time.Time
	Status           Status
	Notes            string
	ClientDiscussion string
}

// NewTask creates a Task owned by userID from the given input.
// Missing priority defaults to Medium, missing status to "To do", and a zero
// request date to the current day. Returns an error if validation fails.
func NewTask(userID uuid.UUID, in TaskInput) (*Task, error) {
	now := time.Now().UTC()

	task := &Task{
		ID:               uuid.New(),
		UserID:           userID,
		DateRequested:    in.DateRequested,
		TaskCreator:      strings.TrimSpace(in.TaskCreator),
		Client:           strings.TrimSpace(in.Client),
		Description:      strings.TrimSpace(in.Description),
		PageLink:         strings.TrimSpace(in.PageLink),
		LoginDetails:     in.LoginDetails,
		Priority:         in.Priority,
		Deadline:         in.Deadline,
		Status:           in.Status,
		Notes:            in.Notes,
		ClientDiscussion: in.ClientDiscussion,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Status == "" {
		task.Status = StatusToDo
	}
	if task.DateRequested.IsZero() {
		task.DateRequested = now.Truncate(24 * time.Hour)
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks if the Task has valid data.
// Returns a *ValidationError for the first offending field.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(t.Description) == "" {
		return NewValidationError("description", "is required", nil)
	}
	if strings.TrimSpace(t.Client) == "" {
		return NewValidationError("client", "is required", nil)
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "must be one of To do, In progress, Pending Review, Done", ErrInvalidStatus)
	}
	if t.Deadline.IsZero() {
		return NewValidationError("deadline", "is required", nil)
	}
	if t.PageLink != "" && !isWebURL(t.PageLink) {
		return NewValidationError("page_link", "must be an absolute http(s) URL", nil)
	}
	return nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DateLayout is the wire and form format of DateRequested and Deadline.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD value for field. Blank input yields the zero
// time.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, NewValidationError(field, "must be a date in YYYY-MM-DD form", nil)
	}
	return t, nil
}
