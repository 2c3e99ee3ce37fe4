package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks the store.TaskStore interface
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

// MockTaskCache mocks the TaskCache interface
type MockTaskCache struct {
	mock.Mock
}

func (m *MockTaskCache) Get(userID uuid.UUID) ([]*domain.Task, bool) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]*domain.Task), args.Bool(1)
}

func (m *MockTaskCache) Generation(userID uuid.UUID) uint64 {
	args := m.Called(userID)
	return args.Get(0).(uint64)
}

func (m *MockTaskCache) Fill(userID uuid.UUID, generation uint64, tasks []*domain.Task) bool {
	args := m.Called(userID, generation, tasks)
	return args.Bool(0)
}

func (m *MockTaskCache) Invalidate(userID uuid.UUID) {
	m.Called(userID)
}

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
