package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/events"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// PushSender delivers one push payload to one subscription endpoint.
type PushSender interface {
	// Send delivers the payload. A failed send is a soft failure for the
	// caller: the persisted notification record stands either way.
	Send(ctx context.Context, sub *domain.PushSubscription, payload []byte) error
}

// pushPayload is the JSON body handed to the push sender.
type pushPayload struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Type    string          `json:"type"`
	TaskID  string          `json:"task_id"`
	Data    map[string]any  `json:"data,omitempty"`
	Actions []events.Action `json:"actions,omitempty"`
}

// NotificationHandler consumes lifecycle events and materializes them:
// one persisted notification record per recipient, plus at most one push
// attempt per recipient. Failures are isolated per recipient so one bad
// row or unreachable endpoint never blocks the rest of the fan-out.
type NotificationHandler struct {
	notifications store.NotificationStore
	subscriptions store.PushSubscriptionStore
	push          PushSender
	logger        *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler. push may be nil
// when push delivery is disabled; records are still persisted.
func NewNotificationHandler(
	notifications store.NotificationStore,
	subscriptions store.PushSubscriptionStore,
	push PushSender,
	logger *slog.Logger,
) *NotificationHandler {
	if notifications == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notification store cannot be nil for NotificationHandler")
	}
	if subscriptions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("push subscription store cannot be nil for NotificationHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NotificationHandler")
	}

	return &NotificationHandler{
		notifications: notifications,
		subscriptions: subscriptions,
		push:          push,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

// HandleEvent persists one notification record per recipient and attempts
// push delivery for events marked IsPush. The first persistence error is
// returned after all recipients were attempted; push errors never are.
func (h *NotificationHandler) HandleEvent(ctx context.Context, event *events.LifecycleEvent) error {
	var payload []byte
	if event.IsPush && h.push != nil {
		var err error
		payload, err = json.Marshal(pushPayload{
			Title:   event.Title,
			Content: event.Content,
			Type:    string(event.NotificationType),
			TaskID:  event.TaskID.String(),
			Data:    event.Data,
			Actions: event.Actions,
		})
		if err != nil {
			h.logger.Error("failed to marshal push payload",
				"event_id", event.ID,
				"event_name", event.Name,
				"error", err)
			payload = nil
		}
	}

	var firstErr error
	for _, recipientID := range event.RecipientIDs {
		record, err := domain.NewNotificationRecord(
			recipientID,
			event.Title,
			event.Content,
			event.NotificationType,
			event.IsPush,
		)
		if err != nil {
			h.logger.Error("failed to build notification record, skipping recipient",
				"event_id", event.ID,
				"event_name", event.Name,
				"recipient_id", recipientID,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := h.notifications.Create(ctx, record); err != nil {
			h.logger.Error("failed to persist notification record, skipping recipient",
				"event_id", event.ID,
				"event_name", event.Name,
				"recipient_id", recipientID,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if payload != nil {
			h.sendPush(ctx, event, recipientID, payload)
		}
	}

	return firstErr
}

// sendPush attempts one push delivery for one recipient. The notification
// record is already committed; nothing here can undo it.
func (h *NotificationHandler) sendPush(
	ctx context.Context,
	event *events.LifecycleEvent,
	recipientID uuid.UUID,
	payload []byte,
) {
	sub, err := h.subscriptions.GetByUser(ctx, recipientID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			h.logger.Debug("recipient has no push subscription",
				"event_name", event.Name,
				"recipient_id", recipientID)
			return
		}
		h.logger.Warn("failed to load push subscription",
			"event_name", event.Name,
			"recipient_id", recipientID,
			"error", err)
		return
	}

	if err := h.push.Send(ctx, sub, payload); err != nil {
		h.logger.Warn("push delivery failed, notification record stands",
			"event_name", event.Name,
			"recipient_id", recipientID,
			"endpoint", sub.Endpoint,
			"error", err)
	}
}
