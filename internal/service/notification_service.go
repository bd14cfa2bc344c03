package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// NotificationService implements the notification inbox use cases: users
// list and prune their own notifications and manage their push
// subscription.
type NotificationService struct {
	notifications store.NotificationStore
	subscriptions store.PushSubscriptionStore
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(
	notifications store.NotificationStore,
	subscriptions store.PushSubscriptionStore,
	logger *slog.Logger,
) *NotificationService {
	if notifications == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notification store cannot be nil for NotificationService")
	}
	if subscriptions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("push subscription store cannot be nil for NotificationService")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NotificationService")
	}

	return &NotificationService{
		notifications: notifications,
		subscriptions: subscriptions,
		logger:        logger.With(slog.String("component", "notification_service")),
	}
}

// ListNotifications retrieves the user's notifications, newest first.
func (s *NotificationService) ListNotifications(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.NotificationRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewServiceError("list notifications", err)
	}
	return records, nil
}

// DeleteNotification removes one notification from the user's list. Users
// can only delete their own notifications.
func (s *NotificationService) DeleteNotification(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.notifications.Delete(ctx, id, userID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return NewServiceError("delete notification", err)
	}
	return nil
}

// SavePushSubscription upserts the user's push subscription. A previously
// removed subscription is restored rather than duplicated.
func (s *NotificationService) SavePushSubscription(
	ctx context.Context,
	userID uuid.UUID,
	endpoint string,
	keys json.RawMessage,
) (*domain.PushSubscription, error) {
	sub, err := domain.NewPushSubscription(userID, endpoint, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.subscriptions.Upsert(ctx, sub); err != nil {
		return nil, NewServiceError("save push subscription", err)
	}

	s.logger.Info("push subscription saved", "user_id", userID)
	return sub, nil
}

// RemovePushSubscription deactivates the user's push subscription.
func (s *NotificationService) RemovePushSubscription(ctx context.Context, userID uuid.UUID) error {
	if err := s.subscriptions.Delete(ctx, userID); err != nil {
		if store.IsNotFoundError(err) {
			return ErrSubscriptionNotFound
		}
		return NewServiceError("remove push subscription", err)
	}

	s.logger.Info("push subscription removed", "user_id", userID)
	return nil
}
