package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service"
)

// ChangeStream serves a user's change notifications over SSE.
type ChangeStream interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID)
}

// TaskHandler handles task endpoints.
type TaskHandler struct {
	tasks  service.TaskService
	stream ChangeStream
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. stream may be nil, in which case
// the stream endpoint answers 404.
func NewTaskHandler(tasks service.TaskService, stream ChangeStream, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		stream: stream,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks. The optional q parameter filters by
// description or client.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	tasks, err := h.tasks.ListTasks(r.Context(), p.UserID, query)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskListResponse(tasks, query))
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), p.UserID, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("task created",
		slog.String("task_id", task.ID.String()))
	w.Header().Set("Location", "/api/tasks/"+task.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.GetTask(r.Context(), p.UserID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// StreamChanges handles GET /api/tasks/stream.
func (h *TaskHandler) StreamChanges(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if h.stream == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Change stream is not enabled")
		return
	}
	h.stream.Serve(w, r, p.UserID)
}
