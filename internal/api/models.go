package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
)

// LoginRequest defines the payload for the sign-in endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=256"`
}

// RefreshRequest defines the payload for the session refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SessionResponse is returned by sign-in and refresh.
type SessionResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	// ExpiresAt is the RFC 3339 expiry of the access token
	ExpiresAt string `json:"expires_at"`
}

func newSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		UserID:       s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// CreateTaskRequest defines the payload for creating a task. Dates use
// YYYY-MM-DD.
type CreateTaskRequest struct {
	DateRequested    string `json:"date_requested"    validate:"omitempty,datetime=2006-01-02"`
	TaskCreator      string `json:"task_creator"      validate:"max=200"`
	Client           string `json:"client"            validate:"required,max=200"`
	Description      string `json:"description"       validate:"required,max=2000"`
	PageLink         string `json:"page_link"         validate:"omitempty,url,max=2000"`
	LoginDetails     string `json:"login_details"     validate:"max=2000"`
	Priority         string `json:"priority"`
	Deadline         string `json:"deadline"          validate:"required,datetime=2006-01-02"`
	Status           string `json:"status"`
	Notes            string `json:"notes"             validate:"max=10000"`
	ClientDiscussion string `json:"client_discussion" validate:"max=10000"`
}

// toInput converts the request into domain input. Priority and status are
// matched leniently; empty values take the domain defaults.
func (req CreateTaskRequest) toInput() (domain.TaskInput, error) {
	in := domain.TaskInput{
		TaskCreator:      req.TaskCreator,
		Client:           req.Client,
		Description:      req.Description,
		PageLink:         req.PageLink,
		LoginDetails:     req.LoginDetails,
		Notes:            req.Notes,
		ClientDiscussion: req.ClientDiscussion,
	}

	var err error
	if in.DateRequested, err = domain.ParseDate("date_requested", req.DateRequested); err != nil {
		return in, err
	}
	if in.Deadline, err = domain.ParseDate("deadline", req.Deadline); err != nil {
		return in, err
	}
	if req.Priority != "" {
		if in.Priority, err = domain.ParsePriority(req.Priority); err != nil {
			return in, err
		}
	}
	if req.Status != "" {
		if in.Status, err = domain.ParseStatus(req.Status); err != nil {
			return in, err
		}
	}
	return in, nil
}

// TaskResponse is a task with its display derivations.
type TaskResponse struct {
	ID               uuid.UUID `json:"id"`
	DateRequested    string    `json:"date_requested"`
	TaskCreator      string    `json:"task_creator"`
	Client           string    `json:"client"`
	Description      string    `json:"description"`
	PageLink         string    `json:"page_link,omitempty"`
	LoginDetails     string    `json:"login_details,omitempty"`
	Priority         string    `json:"priority"`
	PriorityClass    string    `json:"priority_class"`
	Deadline         string    `json:"deadline"`
	DeadlineDisplay  string    `json:"deadline_display"`
	Status           string    `json:"status"`
	StatusClass      string    `json:"status_class"`
	Notes            string    `json:"notes,omitempty"`
	ClientDiscussion string    `json:"client_discussion,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:               t.ID,
		DateRequested:    formatDate(t.DateRequested),
		TaskCreator:      t.TaskCreator,
		Client:           t.Client,
		Description:      t.Description,
		PageLink:         t.PageLink,
		LoginDetails:     t.LoginDetails,
		Priority:         string(t.Priority),
		PriorityClass:    domain.PriorityBadgeClass(t.Priority),
		Deadline:         formatDate(t.Deadline),
		DeadlineDisplay:  domain.FormatDeadline(t.Deadline),
		Status:           string(t.Status),
		StatusClass:      domain.StatusBadgeClass(t.Status),
		Notes:            t.Notes,
		ClientDiscussion: t.ClientDiscussion,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// TaskListResponse is returned by the list endpoint.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
	Query string         `json:"query,omitempty"`
}

func newTaskListResponse(tasks []*domain.Task, query string) TaskListResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return TaskListResponse{Tasks: out, Count: len(out), Query: query}
}
