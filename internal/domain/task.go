package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the review-workflow state of a task.
type TaskStatus string

// Possible task status values. The workflow moves
// new → doing → pending_verification → {verification_failed | verified} → closed,
// with verification_failed → doing and a scheduled verified → new reset for
// repeating tasks.
const (
	TaskStatusNew                 TaskStatus = "new"
	TaskStatusDoing               TaskStatus = "doing"
	TaskStatusPendingVerification TaskStatus = "pending_verification"
	TaskStatusVerificationFailed  TaskStatus = "verification_failed"
	TaskStatusVerified            TaskStatus = "verified"
	TaskStatusClosed              TaskStatus = "closed"
)

// TaskStatuses lists every defined status, in workflow order.
var TaskStatuses = []TaskStatus{
	TaskStatusNew,
	TaskStatusDoing,
	TaskStatusPendingVerification,
	TaskStatusVerificationFailed,
	TaskStatusVerified,
	TaskStatusClosed,
}

// TaskPriority represents the urgency assigned to a task.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskCreatorEmpty is returned when a task's creator ID is empty or nil.
	ErrTaskCreatorEmpty = errors.New("task creator ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")
)

// Task is the central work item moving through the review workflow.
// Rich-text fields (Description, ExpectedResult) are stored as JSONB
// document trees. Assignee and verifier are plain user references; a task
// does not own its users. Tasks are never physically deleted, only
// soft-deleted via DeletedAt.
type Task struct {
	ID              uuid.UUID       `json:"id"`
	Status          TaskStatus      `json:"status"`
	Priority        TaskPriority    `json:"priority"`
	Title           string          `json:"title"`
	Description     json.RawMessage `json:"description,omitempty"`
	ExpectedResult  json.RawMessage `json:"expected_result,omitempty"`
	StartAt         *time.Time      `json:"start_at,omitempty"`
	DueAt           *time.Time      `json:"due_at,omitempty"`
	IsRepeating     bool            `json:"is_repeating"`
	RepeatFrequency string          `json:"repeat_frequency,omitempty"`
	CreatorID       uuid.UUID       `json:"creator_id"`
	AssigneeID      *uuid.UUID      `json:"assignee_id,omitempty"`
	VerifierID      *uuid.UUID      `json:"verifier_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
}

// NewTask creates a new Task owned by the given creator with status NEW.
// It generates a new UUID for the task ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewTask(creatorID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		Status:    TaskStatusNew,
		Priority:  TaskPriorityMedium,
		Title:     title,
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.CreatorID == uuid.Nil {
		return ErrTaskCreatorEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	// The workflow is permissive: any non-empty status is persisted, and
	// statuses outside the known vocabulary simply route no notifications.
	if t.Status == "" {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.DeletedAt != nil
}

// Clone returns a deep-enough copy of the task for diffing: pointer and
// slice fields are duplicated so mutating the copy leaves the original
// snapshot intact.
func (t *Task) Clone() *Task {
	clone := *t
	if t.StartAt != nil {
		v := *t.StartAt
		clone.StartAt = &v
	}
	if t.DueAt != nil {
		v := *t.DueAt
		clone.DueAt = &v
	}
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		clone.AssigneeID = &v
	}
	if t.VerifierID != nil {
		v := *t.VerifierID
		clone.VerifierID = &v
	}
	if t.DeletedAt != nil {
		v := *t.DeletedAt
		clone.DeletedAt = &v
	}
	if t.Description != nil {
		clone.Description = append(json.RawMessage(nil), t.Description...)
	}
	if t.ExpectedResult != nil {
		clone.ExpectedResult = append(json.RawMessage(nil), t.ExpectedResult...)
	}
	return &clone
}
