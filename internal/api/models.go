package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
)

// Common request/response structures

// Optional distinguishes an absent JSON field from an explicit null, so
// a PATCH body can clear a value by sending null while leaving out fields
// it does not touch.
type Optional[T any] struct {
	Set   bool
	Value T
}

// UnmarshalJSON marks the field as present. An explicit null leaves the
// value at its zero.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CreateTaskRequest defines the payload for the task creation endpoint.
// Rich-text fields carry editor documents whose temporary references are
// resolved against the uploaded files of the same request.
type CreateTaskRequest struct {
	Title           string               `json:"title"                      validate:"required,min=1,max=500"`
	Priority        *domain.TaskPriority `json:"priority,omitempty"         validate:"omitempty,oneof=low medium high"`
	Description     json.RawMessage      `json:"description,omitempty"`
	ExpectedResult  json.RawMessage      `json:"expected_result,omitempty"`
	AssigneeID      Optional[*uuid.UUID] `json:"assignee_id"`
	VerifierID      Optional[*uuid.UUID] `json:"verifier_id"`
	StartAt         Optional[*time.Time] `json:"start_at"`
	DueAt           Optional[*time.Time] `json:"due_at"`
	IsRepeating     *bool                `json:"is_repeating,omitempty"`
	RepeatFrequency *string              `json:"repeat_frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly"`
}

// ToPatch converts the request into a lifecycle patch.
func (r *CreateTaskRequest) ToPatch() lifecycle.TaskPatch {
	return lifecycle.TaskPatch{
		Title:           &r.Title,
		Priority:        r.Priority,
		Description:     r.Description,
		ExpectedResult:  r.ExpectedResult,
		AssigneeID:      r.AssigneeID.Value,
		AssigneeSet:     r.AssigneeID.Set,
		VerifierID:      r.VerifierID.Value,
		VerifierSet:     r.VerifierID.Set,
		StartAt:         r.StartAt.Value,
		StartSet:        r.StartAt.Set,
		DueAt:           r.DueAt.Value,
		DueSet:          r.DueAt.Set,
		IsRepeating:     r.IsRepeating,
		RepeatFrequency: r.RepeatFrequency,
	}
}

// UpdateTaskRequest defines the payload for the task update endpoint.
// Every field is optional; absent fields leave the task untouched.
// Status accepts any string because the workflow is permissive by design;
// a status outside the known vocabulary is stored and logged but routes
// no notifications.
type UpdateTaskRequest struct {
	Title            *string              `json:"title,omitempty"            validate:"omitempty,min=1,max=500"`
	Status           *domain.TaskStatus   `json:"status,omitempty"`
	Priority         *domain.TaskPriority `json:"priority,omitempty"         validate:"omitempty,oneof=low medium high"`
	Description      json.RawMessage      `json:"description,omitempty"`
	ExpectedResult   json.RawMessage      `json:"expected_result,omitempty"`
	AssigneeID       Optional[*uuid.UUID] `json:"assignee_id"`
	VerifierID       Optional[*uuid.UUID] `json:"verifier_id"`
	StartAt          Optional[*time.Time] `json:"start_at"`
	DueAt            Optional[*time.Time] `json:"due_at"`
	IsRepeating      *bool                `json:"is_repeating,omitempty"`
	RepeatFrequency  *string              `json:"repeat_frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly"`
	ResolvedReportID *uuid.UUID           `json:"resolved_report_id,omitempty"`
}

// ToPatch converts the request into a lifecycle patch.
func (r *UpdateTaskRequest) ToPatch() lifecycle.TaskPatch {
	return lifecycle.TaskPatch{
		Title:            r.Title,
		Status:           r.Status,
		Priority:         r.Priority,
		Description:      r.Description,
		ExpectedResult:   r.ExpectedResult,
		AssigneeID:       r.AssigneeID.Value,
		AssigneeSet:      r.AssigneeID.Set,
		VerifierID:       r.VerifierID.Value,
		VerifierSet:      r.VerifierID.Set,
		StartAt:          r.StartAt.Value,
		StartSet:         r.StartAt.Set,
		DueAt:            r.DueAt.Value,
		DueSet:           r.DueAt.Set,
		IsRepeating:      r.IsRepeating,
		RepeatFrequency:  r.RepeatFrequency,
		ResolvedReportID: r.ResolvedReportID,
	}
}

// CreateCommentRequest defines the payload for adding a comment to a task.
type CreateCommentRequest struct {
	ParentID *uuid.UUID      `json:"parent_id,omitempty"`
	Type     string          `json:"type,omitempty" validate:"omitempty,oneof=comment completion_report"`
	Content  json.RawMessage `json:"content"        validate:"required"`
}

// SavePushSubscriptionRequest defines the payload for registering a web
// push subscription.
type SavePushSubscriptionRequest struct {
	Endpoint string          `json:"endpoint" validate:"required,url"`
	Keys     json.RawMessage `json:"keys,omitempty"`
}

// TaskResponse defines the task representation returned by the API.
type TaskResponse struct {
	ID              uuid.UUID       `json:"id"`
	Status          string          `json:"status"`
	Priority        string          `json:"priority"`
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
}

// taskToResponse converts a domain task to its API representation.
func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:              task.ID,
		Status:          string(task.Status),
		Priority:        string(task.Priority),
		Title:           task.Title,
		Description:     task.Description,
		ExpectedResult:  task.ExpectedResult,
		StartAt:         task.StartAt,
		DueAt:           task.DueAt,
		IsRepeating:     task.IsRepeating,
		RepeatFrequency: task.RepeatFrequency,
		CreatorID:       task.CreatorID,
		AssigneeID:      task.AssigneeID,
		VerifierID:      task.VerifierID,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}

// CommentResponse defines the comment representation returned by the API.
// Replies nest one level deep, mirroring the stored thread shape.
type CommentResponse struct {
	ID        uuid.UUID         `json:"id"`
	TaskID    uuid.UUID         `json:"task_id"`
	AuthorID  uuid.UUID         `json:"author_id"`
	ParentID  *uuid.UUID        `json:"parent_id,omitempty"`
	Type      string            `json:"type"`
	Content   json.RawMessage   `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Replies   []CommentResponse `json:"replies,omitempty"`
}

// commentToResponse converts a domain comment, including its replies.
func commentToResponse(comment *domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		AuthorID:  comment.AuthorID,
		ParentID:  comment.ParentID,
		Type:      string(comment.Type),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	for _, reply := range comment.Replies {
		resp.Replies = append(resp.Replies, commentToResponse(reply))
	}
	return resp
}

func commentsToResponse(comments []*domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, commentToResponse(comment))
	}
	return out
}

// ActivityEntryResponse defines one activity feed entry.
type ActivityEntryResponse struct {
	ID        uuid.UUID       `json:"id"`
	TaskID    uuid.UUID       `json:"task_id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func activityToResponse(entries []*domain.ActivityLogEntry) []ActivityEntryResponse {
	out := make([]ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ActivityEntryResponse{
			ID:        entry.ID,
			TaskID:    entry.TaskID,
			ActorID:   entry.ActorID,
			Action:    string(entry.Action),
			Payload:   entry.Payload,
			CreatedAt: entry.CreatedAt,
		})
	}
	return out
}

// NotificationResponse defines one notification record.
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	IsPush    bool      `json:"is_push"`
	CreatedAt time.Time `json:"created_at"`
}

func notificationsToResponse(records []*domain.NotificationRecord) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, NotificationResponse{
			ID:        record.ID,
			Title:     record.Title,
			Content:   record.Content,
			Type:      string(record.Type),
			IsPush:    record.IsPush,
			CreatedAt: record.CreatedAt,
		})
	}
	return out
}

// PushSubscriptionResponse defines the stored push subscription returned
// after registration.
type PushSubscriptionResponse struct {
	UserID    uuid.UUID       `json:"user_id"`
	Endpoint  string          `json:"endpoint"`
	Keys      json.RawMessage `json:"keys,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}
