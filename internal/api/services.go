package api

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/content"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/service"
)

// TaskService defines the task use cases the handlers depend on.
// Implemented by service.TaskService.
type TaskService interface {
	CreateTask(ctx context.Context, actorID uuid.UUID, patch lifecycle.TaskPatch, files []content.UploadedFile) (*domain.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, patch lifecycle.TaskPatch, files []content.UploadedFile) (*domain.Task, error)
	DeleteTask(ctx context.Context, actorID, id uuid.UUID) error
	ListActivity(ctx context.Context, taskID uuid.UUID) ([]*domain.ActivityLogEntry, error)
}

// CommentService defines the comment use cases the handlers depend on.
// Implemented by service.CommentService.
type CommentService interface {
	AddComment(ctx context.Context, actorID, taskID uuid.UUID, input service.CommentInput) (*domain.Comment, error)
	ListComments(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error)
}

// NotificationService defines the notification use cases the handlers
// depend on. Implemented by service.NotificationService.
type NotificationService interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.NotificationRecord, error)
	DeleteNotification(ctx context.Context, userID, id uuid.UUID) error
	SavePushSubscription(ctx context.Context, userID uuid.UUID, endpoint string, keys json.RawMessage) (*domain.PushSubscription, error)
	RemovePushSubscription(ctx context.Context, userID uuid.UUID) error
}
