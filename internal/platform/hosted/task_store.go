package hosted

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/principal"
	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/store"
)

// dateLayout is how date columns travel over the REST API.
const dateLayout = "2006-01-02"

// PostgREST answers a single-object request that matched nothing with this code.
const codeNoRows = "PGRST116"

// TaskStore implements store.TaskStore over the hosted REST API.
// Requests carry the caller's access token from the principal context so
// the service's row-level security policies apply.
type TaskStore struct {
	db     *DatabaseClient
	schema string
	table  string
	logger *slog.Logger
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore over schema.table.
func NewTaskStore(client *Client, schema, table string, logger *slog.Logger) *TaskStore {
	return &TaskStore{
		db:     client.Database(),
		schema: schema,
		table:  table,
		logger: logger.With("component", "hosted_task_store"),
	}
}

// taskRow is the REST representation of a task row.
type taskRow struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	DateRequested    string    `json:"date_requested"`
	TaskCreator      string    `json:"task_creator"`
	Client           string    `json:"client"`
	Description      string    `json:"description"`
	PageLink         string    `json:"page_link"`
	LoginDetails     string    `json:"login_details"`
	Priority         string    `json:"priority"`
	Deadline         string    `json:"deadline"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes"`
	ClientDiscussion string    `json:"client_discussion"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func rowFromTask(t *domain.Task) taskRow {
	return taskRow{
		ID:               t.ID,
		UserID:           t.UserID,
		DateRequested:    formatDate(t.DateRequested),
		TaskCreator:      t.TaskCreator,
		Client:           t.Client,
		Description:      t.Description,
		PageLink:         t.PageLink,
		LoginDetails:     t.LoginDetails,
		Priority:         string(t.Priority),
		Deadline:         formatDate(t.Deadline),
		Status:           string(t.Status),
		Notes:            t.Notes,
		ClientDiscussion: t.ClientDiscussion,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (r taskRow) toTask() (*domain.Task, error) {
	dateRequested, err := parseDate(r.DateRequested)
	if err != nil {
		return nil, fmt.Errorf("date_requested: %w", err)
	}
	deadline, err := parseDate(r.Deadline)
	if err != nil {
		return nil, fmt.Errorf("deadline: %w", err)
	}
	return &domain.Task{
		ID:               r.ID,
		UserID:           r.UserID,
		DateRequested:    dateRequested,
		TaskCreator:      r.TaskCreator,
		Client:           r.Client,
		Description:      r.Description,
		PageLink:         r.PageLink,
		LoginDetails:     r.LoginDetails,
		Priority:         domain.Priority(r.Priority),
		Deadline:         deadline,
		Status:           domain.Status(r.Status),
		Notes:            r.Notes,
		ClientDiscussion: r.ClientDiscussion,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// parseDate accepts plain dates and full timestamps, since a column may be
// declared either way on the hosted side.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var created []taskRow
	err = s.db.From(s.table).
		Schema(s.schema).
		Insert(rowFromTask(task)).
		WithToken(token).
		ExecuteInto(ctx, &created)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to insert task",
			"task_id", task.ID, "user_id", task.UserID, "error", redact.Error(err))
		return s.mapError("create", err)
	}

	if len(created) > 0 {
		task.CreatedAt = created[0].CreatedAt
		task.UpdatedAt = created[0].UpdatedAt
	}
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	err = s.db.From(s.table).
		Schema(s.schema).
		Select("*").
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, s.mapError("get", err)
	}
	if len(rows) == 0 {
		return nil, store.ErrTaskNotFound
	}

	task, err := rows[0].toTask()
	if err != nil {
		return nil, store.NewStoreError("task", "get", "malformed row", err)
	}
	return task, nil
}

// ListByUser implements store.TaskStore.
func (s *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	err = s.db.From(s.table).
		Schema(s.schema).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", OrderDesc).
		WithToken(token).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, s.mapError("list", err)
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toTask()
		if err != nil {
			s.logger.WarnContext(ctx, "skipping malformed task row", "task_id", row.ID, "error", redact.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *TaskStore) token(ctx context.Context) (string, error) {
	token := principal.AccessToken(ctx)
	if token == "" {
		return "", fmt.Errorf("%w: %w", store.ErrUnauthorized, ErrMissingToken)
	}
	return token, nil
}

// mapError translates hosted service failures into store errors.
func (s *TaskStore) mapError(operation string, err error) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return store.NewStoreError("task", operation, "request failed", fmt.Errorf("%w: %v", store.ErrUnavailable, err))
	}

	switch {
	case apiErr.Code == codeNoRows:
		return store.ErrTaskNotFound
	case apiErr.IsUnauthorized():
		return store.NewStoreError("task", operation, "access denied", fmt.Errorf("%w: %v", store.ErrUnauthorized, apiErr))
	case apiErr.IsServerError():
		return store.NewStoreError("task", operation, "service error", fmt.Errorf("%w: %v", store.ErrUnavailable, apiErr))
	case apiErr.StatusCode == http.StatusConflict,
		apiErr.StatusCode == http.StatusBadRequest,
		apiErr.StatusCode == http.StatusUnprocessableEntity,
		strings.HasPrefix(apiErr.Code, "23"):
		return store.NewStoreError("task", operation, "rejected by service", fmt.Errorf("%w: %v", store.ErrInvalidEntity, apiErr))
	default:
		return store.NewStoreError("task", operation, "request failed", apiErr)
	}
}
