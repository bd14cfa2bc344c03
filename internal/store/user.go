package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// UserStore is the user directory consumed by the engine: activity payload
// builders resolve display names through it, and fan-out validates
// recipients against it. User lifecycle management lives outside this
// subsystem.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrDuplicate if a user with the same email already exists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
