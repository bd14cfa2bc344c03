// Package fanout maps task lifecycle changes to notification events and
// delivers them asynchronously to the computed set of recipients.
package fanout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/events"
)

// statusRoute describes how one landing status maps to a notification
// event: which event fires, what the message says, and who receives it.
// Keeping the mapping as an exhaustive switch over the status enum keeps it
// checkable at compile time.
type statusRoute struct {
	event            string
	notificationType domain.NotificationType
	title            string
	content          func(task *domain.Task) string
	recipients       func(task *domain.Task) []*uuid.UUID
}

// routeForStatus returns the route for a task landing in the given status.
// Unknown status values have no route: the machine is permissive about what
// callers set, and side effects only fire for states the table knows.
func routeForStatus(status domain.TaskStatus) (statusRoute, bool) {
	switch status {
	case domain.TaskStatusNew:
		return statusRoute{
			event:            events.EventTaskCreated,
			notificationType: domain.NotificationTypeTaskCreated,
			title:            "New task",
			content: func(task *domain.Task) string {
				return fmt.Sprintf("Task %q is ready to be picked up", task.Title)
			},
			recipients: func(task *domain.Task) []*uuid.UUID {
				return []*uuid.UUID{task.AssigneeID, task.VerifierID}
			},
		}, true

	case domain.TaskStatusDoing:
		return statusRoute{
			event:            events.EventTaskDoing,
			notificationType: domain.NotificationTypeTaskStatus,
			title:            "Task in progress",
			content: func(task *domain.Task) string {
				return fmt.Sprintf("Work started on task %q", task.Title)
			},
			recipients: func(task *domain.Task) []*uuid.UUID {
				return []*uuid.UUID{task.VerifierID, &task.CreatorID}
			},
		}, true

	case domain.TaskStatusPendingVerification:
		return statusRoute{
			event:            events.EventTaskPendingVerify,
			notificationType: domain.NotificationTypeTaskStatus,
			title:            "Task awaiting verification",
			content: func(task *domain.Task) string {
				return fmt.Sprintf("Task %q is waiting for your verification", task.Title)
			},
			recipients: func(task *domain.Task) []*uuid.UUID {
				return []*uuid.UUID{task.VerifierID}
			},
		}, true

	case domain.TaskStatusVerificationFailed:
		return statusRoute{
			event:            events.EventTaskVerificationFailed,
			notificationType: domain.NotificationTypeTaskStatus,
			title:            "Verification failed",
			content: func(task *domain.Task) string {
				return fmt.Sprintf("Task %q was sent back for rework", task.Title)
			},
			recipients: func(task *domain.Task) []*uuid.UUID {
				return []*uuid.UUID{task.AssigneeID}
			},
		}, true

	case domain.TaskStatusVerified:
		return statusRoute{
			event:            events.EventTaskVerified,
			notificationType: domain.NotificationTypeTaskStatus,
			title:            "Task verified",
			content: func(task *domain.Task) string {
				return fmt.Sprintf("Task %q passed verification", task.Title)
			},
			recipients: func(task *domain.Task) []*uuid.UUID {
				return []*uuid.UUID{task.AssigneeID}
			},
		}, true

	case domain.TaskStatusClosed:
		return statusRoute{
			event:            events.EventTaskClosed,
			notificationType: domain.NotificationTypeTaskStatus,
			title:            "Task closed",
			content: func(task *domain.Task) string {
				return fmt.Sprintf("Task %q was closed", task.Title)
			},
			recipients: func(task *domain.Task) []*uuid.UUID {
				return []*uuid.UUID{task.AssigneeID, task.VerifierID}
			},
		}, true

	default:
		return statusRoute{}, false
	}
}

// collectRecipients de-duplicates the candidate references, drops nils, and
// suppresses the actor's own notification.
func collectRecipients(actorID uuid.UUID, candidates []*uuid.UUID) []uuid.UUID {
	recipients := make([]uuid.UUID, 0, len(candidates))
	seen := make(map[uuid.UUID]bool, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil || *candidate == actorID || seen[*candidate] {
			continue
		}
		seen[*candidate] = true
		recipients = append(recipients, *candidate)
	}
	return recipients
}
