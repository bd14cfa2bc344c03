package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
)

// Lifecycle event names. Every task mutation, comment and scheduler reminder
// is expressed in this vocabulary before it reaches notification delivery.
const (
	EventTaskCreated            = "task.created"
	EventTaskAssigned           = "task.assigned"
	EventTaskUnassigned         = "task.unassigned"
	EventTaskDoing              = "task.doing"
	EventTaskPendingVerify      = "task.pending_verification"
	EventTaskVerificationFailed = "task.verification_failed"
	EventTaskVerified           = "task.verified"
	EventTaskClosed             = "task.closed"
	EventTaskDueSoon            = "task.dueSoon"
	EventTaskCommentAdded       = "task.comment.added"
)

// Action is a client-side action button attached to a push notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// LifecycleEvent is the transient value produced by fan-out for one task
// lifecycle change. It is consumed once per recipient to create a persisted
// notification record and, optionally, attempt a push delivery. Events are
// never persisted as such; the records are.
type LifecycleEvent struct {
	// ID is a unique identifier for this event instance.
	ID uuid.UUID `json:"id"`

	// Name is one of the Event* constants.
	Name string `json:"name"`

	// TaskID identifies the task the event concerns.
	TaskID uuid.UUID `json:"task_id"`

	// ActorID is the user whose action produced the event; uuid.Nil for
	// scheduler-synthesized events with no acting user.
	ActorID uuid.UUID `json:"actor_id"`

	// RecipientIDs lists the users to notify, already de-duplicated and
	// with the actor excluded.
	RecipientIDs []uuid.UUID `json:"recipient_ids"`

	Title            string                  `json:"title"`
	Content          string                  `json:"content"`
	NotificationType domain.NotificationType `json:"notification_type"`
	IsPush           bool                    `json:"is_push"`
	Data             map[string]any          `json:"data,omitempty"`
	Actions          []Action                `json:"actions,omitempty"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewLifecycleEvent creates a LifecycleEvent with a fresh ID and timestamp.
func NewLifecycleEvent(
	name string,
	taskID, actorID uuid.UUID,
	recipientIDs []uuid.UUID,
	title, content string,
	notificationType domain.NotificationType,
	isPush bool,
) *LifecycleEvent {
	return &LifecycleEvent{
		ID:               uuid.New(),
		Name:             name,
		TaskID:           taskID,
		ActorID:          actorID,
		RecipientIDs:     recipientIDs,
		Title:            title,
		Content:          content,
		NotificationType: notificationType,
		IsPush:           isPush,
		CreatedAt:        time.Now().UTC(),
	}
}

// Handler defines an interface for components that can handle lifecycle events.
// Handlers are responsible for processing events and taking appropriate actions.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *LifecycleEvent) error
}

// Emitter defines an interface for components that can emit lifecycle events.
// This allows the fan-out dispatcher to publish events without direct
// knowledge of the delivery handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *LifecycleEvent) error
}
