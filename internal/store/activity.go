package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// ActivityLogStore defines the interface for activity log persistence.
// The log is append-only; there are no update or delete operations.
type ActivityLogStore interface {
	// Create appends a new activity log entry.
	// Returns validation errors if the entry data is invalid.
	Create(ctx context.Context, entry *domain.ActivityLogEntry) error

	// ListByTask retrieves a task's activity entries in chronological order
	// for activity-feed reconstruction.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.ActivityLogEntry, error)

	// WithTx returns a new ActivityLogStore instance that uses the provided
	// transaction, so entries commit atomically with the task row they describe.
	WithTx(tx *sql.Tx) ActivityLogStore
}
