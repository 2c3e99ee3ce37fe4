package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/service"
)

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	CreateTaskFn func(ctx context.Context, userID uuid.UUID, in domain.TaskInput) (*domain.Task, error)
	ListTasksFn  func(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error)
	GetTaskFn    func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Default return values
	Task         *domain.Task
	Tasks        []*domain.Task
	DefaultError error
}

var _ service.TaskService = (*MockTaskService)(nil)

// CreateTask implements service.TaskService
func (m *MockTaskService) CreateTask(ctx context.Context, userID uuid.UUID, in domain.TaskInput) (*domain.Task, error) {
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, userID, in)
	}
	return m.Task, m.DefaultError
}

// ListTasks implements service.TaskService
func (m *MockTaskService) ListTasks(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error) {
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx, userID, query)
	}
	return m.Tasks, m.DefaultError
}

// GetTask implements service.TaskService
func (m *MockTaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, userID, taskID)
	}
	return m.Task, m.DefaultError
}
