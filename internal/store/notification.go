package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// NotificationStore defines the interface for notification record persistence.
// Notification writes happen on delivery goroutines outside any request
// transaction, so the interface carries no WithTx.
type NotificationStore interface {
	// Create persists one notification record for one recipient.
	Create(ctx context.Context, record *domain.NotificationRecord) error

	// ListByUser retrieves a user's non-deleted notifications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.NotificationRecord, error)

	// Delete soft-deletes a notification owned by the given user.
	// Returns ErrNotificationNotFound if no such notification exists.
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// PushSubscriptionStore defines the interface for push subscription persistence.
type PushSubscriptionStore interface {
	// Upsert saves a user's subscription. If a row already exists for the
	// user, including a soft-deleted one, it is updated and restored
	// rather than duplicated.
	Upsert(ctx context.Context, sub *domain.PushSubscription) error

	// GetByUser retrieves the user's active subscription.
	// Returns ErrSubscriptionNotFound if the user has none or it was deleted.
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.PushSubscription, error)

	// Delete soft-deletes the user's subscription.
	// Returns ErrSubscriptionNotFound if the user has no active subscription.
	Delete(ctx context.Context, userID uuid.UUID) error
}
