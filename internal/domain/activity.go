package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActivityAction enumerates the discrete field changes that produce an
// activity log entry.
type ActivityAction string

// Possible activity action values
const (
	ActivityActionChangeStatus      ActivityAction = "change_status"
	ActivityActionChangeAssignee    ActivityAction = "change_assignee"
	ActivityActionChangeVerifier    ActivityAction = "change_verifier"
	ActivityActionChangeDueDate     ActivityAction = "change_due_date"
	ActivityActionChangePriority    ActivityAction = "change_priority"
	ActivityActionChangeTitle       ActivityAction = "change_title"
	ActivityActionChangeDescription ActivityAction = "change_description"
	ActivityActionChangeExpected    ActivityAction = "change_expected_result"
	ActivityActionResolveReport     ActivityAction = "resolve_report"
	ActivityActionAddComment        ActivityAction = "add_comment"
)

// Activity-specific validation errors
var (
	// ErrActivityIDEmpty is returned when an activity entry ID is empty or nil.
	ErrActivityIDEmpty = errors.New("activity entry ID cannot be empty")

	// ErrActivityTaskIDEmpty is returned when an activity entry's task ID is empty or nil.
	ErrActivityTaskIDEmpty = errors.New("activity entry task ID cannot be empty")

	// ErrActivityActorEmpty is returned when an activity entry's actor ID is empty or nil.
	ErrActivityActorEmpty = errors.New("activity entry actor ID cannot be empty")

	// ErrActivityPayloadEmpty is returned when an activity entry's payload is empty.
	ErrActivityPayloadEmpty = errors.New("activity entry payload cannot be empty")
)

// ActivityLogEntry is one immutable record of a single field change on a
// task. Entries are append-only: they are created exclusively by the
// activity recorder and never mutated or deleted. The payload is a small
// JSONB structure, either {action, target} or {action, content}.
type ActivityLogEntry struct {
	ID        uuid.UUID       `json:"id"`
	TaskID    uuid.UUID       `json:"task_id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Action    ActivityAction  `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewActivityLogEntry creates a new entry for the given task and actor.
// Returns an error if validation fails.
func NewActivityLogEntry(
	taskID, actorID uuid.UUID,
	action ActivityAction,
	payload json.RawMessage,
) (*ActivityLogEntry, error) {
	entry := &ActivityLogEntry{
		ID:        uuid.New(),
		TaskID:    taskID,
		ActorID:   actorID,
		Action:    action,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the ActivityLogEntry has valid data.
// Returns an error if any field fails validation.
func (e *ActivityLogEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrActivityIDEmpty
	}

	if e.TaskID == uuid.Nil {
		return ErrActivityTaskIDEmpty
	}

	if e.ActorID == uuid.Nil {
		return ErrActivityActorEmpty
	}

	if e.Action == "" {
		return ErrInvalidActivityAction
	}

	if len(e.Payload) == 0 {
		return ErrActivityPayloadEmpty
	}

	return nil
}
