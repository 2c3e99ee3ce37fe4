package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task. The task must pass domain validation.
	// Returns ErrInvalidEntity (wrapped) when the backend rejects the row.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by userID.
	// Returns ErrTaskNotFound if it does not exist or belongs to someone else.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns all tasks owned by userID, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
}
