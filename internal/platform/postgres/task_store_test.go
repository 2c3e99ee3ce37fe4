package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{
	"id", "user_id", "date_requested", "task_creator", "client", "description",
	"page_link", "login_details", "priority", "deadline", "status", "notes",
	"client_discussion", "created_at", "updated_at",
}

func newMockStore(t *testing.T, rlsRole string) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresTaskStore(db, rlsRole, testLogger()), mock
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expectClaims(mock sqlmock.Sqlmock, userID uuid.UUID) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT set_config('request.jwt.claims'")).
		WithArgs(sqlmock.AnyArg(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func validTask(t *testing.T, userID uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(userID, domain.TaskInput{
		Client:      "Acme",
		Description: "Update pricing page",
		Deadline:    time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		Priority:    domain.PriorityHigh,
	})
	require.NoError(t, err)
	return task
}

func TestPostgresTaskStore_Create(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID := uuid.New()
	task := validTask(t, userID)
	createdAt := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs(task.ID, userID, task.DateRequested, "", "Acme", "Update pricing page",
			"", "", "High", task.Deadline, "To do", "", "", task.CreatedAt, task.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(createdAt, createdAt))
	mock.ExpectCommit()

	require.NoError(t, s.Create(context.Background(), task))
	assert.Equal(t, createdAt, task.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_CreateAssumesRole(t *testing.T) {
	s, mock := newMockStore(t, "authenticated")
	userID := uuid.New()
	task := validTask(t, userID)

	expectClaims(mock, userID)
	mock.ExpectExec(regexp.QuoteMeta(`SET LOCAL ROLE "authenticated"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	require.NoError(t, s.Create(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_CreateInvalid(t *testing.T) {
	s, mock := newMockStore(t, "")
	task := validTask(t, uuid.New())
	task.Client = " "

	err := s.Create(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_CreateConstraintViolation(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID := uuid.New()
	task := validTask(t, userID)

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "tasks_pkey"})
	mock.ExpectRollback()

	err := s.Create(context.Background(), task)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "create", storeErr.Operation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID, taskID := uuid.New(), uuid.New()
	deadline := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND user_id = $2")).
		WithArgs(taskID, userID).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
			taskID.String(), userID.String(), now, "Grace", "Acme", "Audit", "https://acme.example.com", "",
			"Low", deadline, "Pending Review", "n", "cd", now, now))
	mock.ExpectCommit()

	task, err := s.GetByID(context.Background(), userID, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, domain.PriorityLow, task.Priority)
	assert.Equal(t, domain.StatusPendingReview, task.Status)
	assert.Equal(t, deadline, task.Deadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_GetByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID := uuid.New()

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.GetByID(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_ListByUser(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID := uuid.New()
	newer, older := uuid.New(), uuid.New()
	now := time.Now().UTC()

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY created_at DESC")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(newer.String(), userID.String(), now, "", "Beta", "Second", "", "", "Medium", now, "Done", "", "", now, now).
			AddRow(older.String(), userID.String(), now, "", "Acme", "First", "", "", "High", now, "To do", "", "", now.Add(-time.Hour), now))
	mock.ExpectCommit()

	tasks, err := s.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, newer, tasks[0].ID)
	assert.Equal(t, older, tasks[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_ListByUserEmpty(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID := uuid.New()

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE user_id")).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))
	mock.ExpectCommit()

	tasks, err := s.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestPostgresTaskStore_ListByUserRLSRefusal(t *testing.T) {
	s, mock := newMockStore(t, "")
	userID := uuid.New()

	expectClaims(mock, userID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE user_id")).
		WillReturnError(&pgconn.PgError{Code: "42501"})
	mock.ExpectRollback()

	_, err := s.ListByUser(context.Background(), userID)
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestSelectTasksByUser_RunsOnPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	userID := uuid.New()
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(uuid.New(), userID, now, "", "Acme", "Audit", "", "", "Low", now, "Done", "", "", now, now))

	tasks, err := selectTasksByUser(context.Background(), db, userID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.PriorityLow, tasks[0].Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyClaims_SkipsRoleWhenUnset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	userID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("SELECT set_config('request.jwt.claims'")).
		WithArgs(`{"role":"authenticated","sub":"`+userID.String()+`"}`, userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, applyClaims(context.Background(), db, userID, "authenticated", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}
