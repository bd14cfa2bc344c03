package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies persisted notifications by the lifecycle
// event that produced them.
type NotificationType string

// Possible notification type values
const (
	NotificationTypeTaskCreated  NotificationType = "task_created"
	NotificationTypeTaskStatus   NotificationType = "task_status"
	NotificationTypeTaskAssigned NotificationType = "task_assigned"
	NotificationTypeTaskComment  NotificationType = "task_comment"
	NotificationTypeTaskReminder NotificationType = "task_reminder"
)

// Notification-specific validation errors
var (
	// ErrNotificationIDEmpty is returned when a notification ID is empty or nil.
	ErrNotificationIDEmpty = errors.New("notification ID cannot be empty")

	// ErrNotificationUserEmpty is returned when a notification's user ID is empty or nil.
	ErrNotificationUserEmpty = errors.New("notification user ID cannot be empty")

	// ErrNotificationTitleEmpty is returned when a notification's title is empty.
	ErrNotificationTitleEmpty = errors.New("notification title cannot be empty")

	// ErrSubscriptionUserEmpty is returned when a push subscription's user ID is empty or nil.
	ErrSubscriptionUserEmpty = errors.New("push subscription user ID cannot be empty")

	// ErrSubscriptionEndpointEmpty is returned when a push subscription's endpoint is empty.
	ErrSubscriptionEndpointEmpty = errors.New("push subscription endpoint cannot be empty")
)

// NotificationRecord is one persisted notification for one user. Records are
// soft-deleted via DeletedAt so a user's notification list can be pruned
// without losing history.
type NotificationRecord struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Type      NotificationType `json:"type"`
	IsPush    bool             `json:"is_push"`
	CreatedAt time.Time        `json:"created_at"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty"`
}

// NewNotificationRecord creates a new NotificationRecord for the given user.
// Returns an error if validation fails.
func NewNotificationRecord(
	userID uuid.UUID,
	title, content string,
	notificationType NotificationType,
	isPush bool,
) (*NotificationRecord, error) {
	record := &NotificationRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Type:      notificationType,
		IsPush:    isPush,
		CreatedAt: time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the NotificationRecord has valid data.
func (n *NotificationRecord) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNotificationIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrNotificationUserEmpty
	}

	if n.Title == "" {
		return ErrNotificationTitleEmpty
	}

	return nil
}

// PushSubscription is a user's opaque browser push subscription descriptor.
// At most one subscription is active per user; saving a new one upserts,
// restoring a soft-deleted row rather than inserting a duplicate.
type PushSubscription struct {
	UserID    uuid.UUID       `json:"user_id"`
	Endpoint  string          `json:"endpoint"`
	Keys      json.RawMessage `json:"keys,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

// NewPushSubscription creates a new PushSubscription for the given user.
// Returns an error if validation fails.
func NewPushSubscription(userID uuid.UUID, endpoint string, keys json.RawMessage) (*PushSubscription, error) {
	now := time.Now().UTC()
	sub := &PushSubscription{
		UserID:    userID,
		Endpoint:  endpoint,
		Keys:      keys,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := sub.Validate(); err != nil {
		return nil, err
	}

	return sub, nil
}

// Validate checks if the PushSubscription has valid data.
func (s *PushSubscription) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrSubscriptionUserEmpty
	}

	if s.Endpoint == "" {
		return ErrSubscriptionEndpointEmpty
	}

	return nil
}

// IsActive reports whether the subscription has not been soft-deleted.
func (s *PushSubscription) IsActive() bool {
	return s.DeletedAt == nil
}
