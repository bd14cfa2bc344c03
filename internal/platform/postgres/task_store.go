package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, status, priority, title, description, expected_result,
	start_at, due_at, is_repeating, repeat_frequency,
	creator_id, assignee_id, verifier_id, created_at, updated_at, deleted_at`

// scanTask reads one task row into a domain.Task.
func scanTask(row interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var task domain.Task
	var description, expectedResult []byte
	var startAt, dueAt, deletedAt sql.NullTime
	var repeatFrequency sql.NullString
	var assigneeID, verifierID uuid.NullUUID

	err := row.Scan(
		&task.ID,
		&task.Status,
		&task.Priority,
		&task.Title,
		&description,
		&expectedResult,
		&startAt,
		&dueAt,
		&task.IsRepeating,
		&repeatFrequency,
		&task.CreatorID,
		&assigneeID,
		&verifierID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description
	task.ExpectedResult = expectedResult
	if startAt.Valid {
		task.StartAt = &startAt.Time
	}
	if dueAt.Valid {
		task.DueAt = &dueAt.Time
	}
	if deletedAt.Valid {
		task.DeletedAt = &deletedAt.Time
	}
	if repeatFrequency.Valid {
		task.RepeatFrequency = repeatFrequency.String
	}
	if assigneeID.Valid {
		task.AssigneeID = &assigneeID.UUID
	}
	if verifierID.Valid {
		task.VerifierID = &verifierID.UUID
	}

	return &task, nil
}

// collectTasks drains a result set of task rows.
func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return tasks, nil
}

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns store.ErrInvalidEntity if a referenced user doesn't exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Status,
		task.Priority,
		task.Title,
		nullableJSON(task.Description),
		nullableJSON(task.ExpectedResult),
		task.StartAt,
		task.DueAt,
		task.IsRepeating,
		nullableString(task.RepeatFrequency),
		task.CreatorID,
		task.AssigneeID,
		task.VerifierID,
		task.CreatedAt,
		task.UpdatedAt,
		task.DeletedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("creator_id", task.CreatorID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Soft-deleted tasks are not returned.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND deleted_at IS NULL
	`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// Update implements store.TaskStore.Update
// It writes all mutable columns of the task row.
// Returns store.ErrTaskNotFound if the task does not exist or was deleted.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET status = $2,
			priority = $3,
			title = $4,
			description = $5,
			expected_result = $6,
			start_at = $7,
			due_at = $8,
			is_repeating = $9,
			repeat_frequency = $10,
			assignee_id = $11,
			verifier_id = $12,
			updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Status,
		task.Priority,
		task.Title,
		nullableJSON(task.Description),
		nullableJSON(task.ExpectedResult),
		task.StartAt,
		task.DueAt,
		task.IsRepeating,
		nullableString(task.RepeatFrequency),
		task.AssigneeID,
		task.VerifierID,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// UpdateStatus implements store.TaskStore.UpdateStatus
// It writes only the status column, bypassing full-row updates. This is the
// scheduler's direct path for the repeating-task reset.
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
// It soft-deletes the task by setting its deleted timestamp.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// List implements store.TaskStore.List
// It retrieves tasks where the user is creator, assignee or verifier,
// newest first.
func (s *PostgresTaskStore) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL
			AND (creator_id = $1 OR assignee_id = $1 OR verifier_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return collectTasks(rows)
}

// ListByStatus implements store.TaskStore.ListByStatus
func (s *PostgresTaskStore) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL AND status = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		log.Error("failed to list tasks by status",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, MapError(err)
	}

	return collectTasks(rows)
}

// ListDueSoon implements store.TaskStore.ListDueSoon
// The window is forward-looking from now; already-overdue tasks are included.
func (s *PostgresTaskStore) ListDueSoon(ctx context.Context, window time.Duration) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL
			AND status = $1
			AND due_at IS NOT NULL
			AND due_at <= $2
		ORDER BY due_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, domain.TaskStatusNew, now.Add(window))
	if err != nil {
		log.Error("failed to list due-soon tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return collectTasks(rows)
}

// ListRepeatingVerified implements store.TaskStore.ListRepeatingVerified
func (s *PostgresTaskStore) ListRepeatingVerified(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL
			AND status = $1
			AND is_repeating = TRUE
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, domain.TaskStatusVerified)
	if err != nil {
		log.Error("failed to list repeating verified tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return collectTasks(rows)
}

// WithTx implements store.TaskStore.WithTx
// It returns a new store running all operations on the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// nullableJSON maps an empty raw message to SQL NULL.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
