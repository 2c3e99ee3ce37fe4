package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/store"
)

// TaskCache is the per-user list cache the service reads through.
// Fill must refuse a list when the owner was invalidated after generation
// was taken.
type TaskCache interface {
	Get(userID uuid.UUID) ([]*domain.Task, bool)
	Generation(userID uuid.UUID) uint64
	Fill(userID uuid.UUID, generation uint64, tasks []*domain.Task) bool
	Invalidate(userID uuid.UUID)
}

// TaskService provides task-related operations
type TaskService interface {
	// CreateTask validates input, stores a new task owned by userID and
	// invalidates the owner's cached list.
	CreateTask(ctx context.Context, userID uuid.UUID, in domain.TaskInput) (*domain.Task, error)

	// ListTasks returns the owner's tasks, newest first, keeping only those
	// whose description or client contains query (case-insensitive).
	ListTasks(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error)

	// GetTask retrieves one of the owner's tasks.
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
}

// TaskServiceOptions configures local change emission.
type TaskServiceOptions struct {
	// EmitLocalEvents makes CreateTask publish a change event itself. Use it
	// when no realtime source is running.
	EmitLocalEvents bool

	// Schema and Table label locally emitted events.
	Schema string
	Table  string
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	store   store.TaskStore
	cache   TaskCache
	emitter events.EventEmitter
	opts    TaskServiceOptions
	logger  *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil. The
// emitter may be nil when EmitLocalEvents is false.
func NewTaskService(
	taskStore store.TaskStore,
	cache TaskCache,
	emitter events.EventEmitter,
	opts TaskServiceOptions,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if opts.EmitLocalEvents && emitter == nil {
		return nil, domain.NewValidationError("emitter", "cannot be nil when emitting local events", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		store:   taskStore,
		cache:   cache,
		emitter: emitter,
		opts:    opts,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(ctx context.Context, userID uuid.UUID, in domain.TaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, in)
	if err != nil {
		log.Debug("task input rejected", slog.String("error", redact.Error(err)))
		return nil, err
	}

	if err := s.store.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("user_id", userID.String()),
			slog.String("error", redact.Error(err)))
		return nil, NewTaskServiceError("create", "failed to save task", err)
	}

	s.cache.Invalidate(userID)

	if s.opts.EmitLocalEvents {
		event := events.NewChangeEvent(events.ChangeInsert, s.opts.Schema, s.opts.Table, task.ID, userID, events.SourceLocal)
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			// The task is stored; a failed notification must not fail the request.
			log.Warn("failed to emit local change event",
				slog.String("task_id", task.ID.String()),
				slog.String("error", redact.Error(err)))
		}
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Task, error) {
	tasks, ok := s.cache.Get(userID)
	if !ok {
		gen := s.cache.Generation(userID)
		var err error
		tasks, err = s.store.ListByUser(ctx, userID)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
				slog.String("user_id", userID.String()),
				slog.String("error", redact.Error(err)))
			return nil, NewTaskServiceError("list", "failed to load tasks", err)
		}
		s.cache.Fill(userID, gen, tasks)
	}
	return domain.FilterTasks(tasks, query), nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.store.GetByID(ctx, userID, taskID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
				slog.String("task_id", taskID.String()),
				slog.String("error", redact.Error(err)))
		}
		return nil, NewTaskServiceError("get", "failed to load task", err)
	}
	return task, nil
}
