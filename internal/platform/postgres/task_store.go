package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/store"
)

const taskColumns = `id, user_id, date_requested, task_creator, client, description,
	page_link, login_details, priority, deadline, status, notes, client_discussion,
	created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
// Every operation runs in a transaction that carries the caller's identity as
// request.jwt.claims, so row-level security policies written for the hosted
// REST API apply unchanged.
type PostgresTaskStore struct {
	db      *sql.DB
	rlsRole string
	logger  *slog.Logger
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// rlsRole may be empty, in which case the connection's own role is kept.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db *sql.DB, rlsRole string, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:      db,
		rlsRole: rlsRole,
		logger:  logger.With(slog.String("component", "task_store")),
	}
}

// Create implements store.TaskStore.Create.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("invalid task rejected", slog.String("error", redact.Error(err)))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err := s.asUser(ctx, task.UserID, func(ctx context.Context, tx *sql.Tx) error {
		return insertTask(ctx, tx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()),
			slog.String("error", redact.Error(err)))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	var task *domain.Task
	err := s.asUser(ctx, userID, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		task, err = selectTask(ctx, tx, userID, id)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		return nil, store.NewStoreError("task", "get", "query failed", MapError(err))
	}
	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser.
func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := s.asUser(ctx, userID, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		tasks, err = selectTasksByUser(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, store.NewStoreError("task", "list", "query failed", MapError(err))
	}
	return tasks, nil
}

// asUser runs fn in a transaction scoped to userID.
func (s *PostgresTaskStore) asUser(ctx context.Context, userID uuid.UUID, fn store.TxFn) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := applyClaims(ctx, tx, userID, s.claimRole(), s.rlsRole); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

// applyClaims makes q look like a request from userID to row-level security
// policies. A non-empty role is assumed for the rest of the transaction.
func applyClaims(ctx context.Context, q store.DBTX, userID uuid.UUID, claimRole, role string) error {
	claims, err := json.Marshal(map[string]string{
		"sub":  userID.String(),
		"role": claimRole,
	})
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`SELECT set_config('request.jwt.claims', $1, true), set_config('request.jwt.claim.sub', $2, true)`,
		string(claims), userID.String()); err != nil {
		return fmt.Errorf("set request claims: %w", err)
	}

	if role != "" {
		if _, err := q.ExecContext(ctx, "SET LOCAL ROLE "+pgx.Identifier{role}.Sanitize()); err != nil {
			return fmt.Errorf("assume role %s: %w", role, err)
		}
	}
	return nil
}

func insertTask(ctx context.Context, q store.DBTX, task *domain.Task) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		task.ID,
		task.UserID,
		task.DateRequested,
		task.TaskCreator,
		task.Client,
		task.Description,
		task.PageLink,
		task.LoginDetails,
		string(task.Priority),
		task.Deadline,
		string(task.Status),
		task.Notes,
		task.ClientDiscussion,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func selectTask(ctx context.Context, q store.DBTX, userID, id uuid.UUID) (*domain.Task, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID)
	return scanTask(row)
}

// selectTasksByUser returns the owner's tasks, newest first.
func selectTasksByUser(ctx context.Context, q store.DBTX, userID uuid.UUID) ([]*domain.Task, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *PostgresTaskStore) claimRole() string {
	if s.rlsRole != "" {
		return s.rlsRole
	}
	return "authenticated"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		priority string
		status   string
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.DateRequested,
		&task.TaskCreator,
		&task.Client,
		&task.Description,
		&task.PageLink,
		&task.LoginDetails,
		&priority,
		&task.Deadline,
		&status,
		&task.Notes,
		&task.ClientDiscussion,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)
	return &task, nil
}
