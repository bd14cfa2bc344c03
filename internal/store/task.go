package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors if the task data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Soft-deleted tasks are not returned.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves changes to an existing task row.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus writes only the task's status column. This is the direct
	// write path used by the scheduler's repeating-task reset; it bypasses
	// the state machine's change detection on purpose.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// Delete soft-deletes a task by setting its deleted timestamp.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves tasks visible to the given user (creator, assignee or
	// verifier), newest first.
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Task, error)

	// ListByStatus retrieves all non-deleted tasks currently in the given status.
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)

	// ListDueSoon retrieves non-deleted NEW tasks whose due date falls inside
	// the forward-looking window [now, now+window].
	ListDueSoon(ctx context.Context, window time.Duration) ([]*domain.Task, error)

	// ListRepeatingVerified retrieves non-deleted tasks that are verified and
	// flagged repeating, i.e. candidates for the daily status reset.
	ListRepeatingVerified(ctx context.Context) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) TaskStore
}
