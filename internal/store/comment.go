package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// CommentStore defines the interface for comment data persistence.
type CommentStore interface {
	// Create saves a new comment to the store.
	// Returns validation errors if the comment data is invalid.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by its unique ID.
	// Returns ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	// ListByTask retrieves a task's comments as a two-level tree: top-level
	// comments in chronological order, each with its replies attached in
	// chronological order.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error)

	// WithTx returns a new CommentStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CommentStore
}
