package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/activity"
	"github.com/taskflow-app/taskflow-api/internal/content"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// List pagination bounds.
const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// EventDispatcher queues lifecycle notifications for asynchronous
// delivery. Services call it strictly after the transaction that persisted
// the change has committed.
type EventDispatcher interface {
	Dispatch(ctx context.Context, task *domain.Task, cs lifecycle.ChangeSet, actorID uuid.UUID)
	DispatchCommentAdded(ctx context.Context, task *domain.Task, comment *domain.Comment)
}

// TaskService implements the task lifecycle use cases: create, read,
// update and delete, each driving the state machine, the activity recorder
// and the notification fan-out.
//
// Concurrent updates to the same task are last-writer-wins: two updates
// read the same snapshot, both diff against it, and the second commit
// overwrites the first. Both emit their own events.
type TaskService struct {
	db         *sql.DB
	tasks      store.TaskStore
	activityLog store.ActivityLogStore
	machine    *lifecycle.StateMachine
	recorder   *activity.Recorder
	dispatcher EventDispatcher
	logger     *slog.Logger
}

// NewTaskService creates a TaskService with all its collaborators.
func NewTaskService(
	db *sql.DB,
	tasks store.TaskStore,
	activityLog store.ActivityLogStore,
	machine *lifecycle.StateMachine,
	recorder *activity.Recorder,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) *TaskService {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for TaskService")
	}
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task store cannot be nil for TaskService")
	}
	if activityLog == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("activity log store cannot be nil for TaskService")
	}
	if machine == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("state machine cannot be nil for TaskService")
	}
	if recorder == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("recorder cannot be nil for TaskService")
	}
	if dispatcher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("dispatcher cannot be nil for TaskService")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskService")
	}

	return &TaskService{
		db:          db,
		tasks:       tasks,
		activityLog: activityLog,
		machine:     machine,
		recorder:    recorder,
		dispatcher:  dispatcher,
		logger:      logger.With(slog.String("component", "task_service")),
	}
}

// CreateTask builds a task from the patch and persists it. The uploaded
// files feed one shared cursor consumed in document order across the
// patch's rich-text fields. Creation writes no activity entries; the
// created event fans out after commit.
func (s *TaskService) CreateTask(
	ctx context.Context,
	actorID uuid.UUID,
	patch lifecycle.TaskPatch,
	files []content.UploadedFile,
) (*domain.Task, error) {
	cursor := content.NewFileCursor(files)

	task, cs, err := s.machine.ApplyCreate(ctx, patch, actorID, cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.warnUnusedFiles(task.ID, cursor)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.tasks.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		return nil, NewServiceError("create task", err)
	}

	s.dispatcher.Dispatch(ctx, task, cs, actorID)

	s.logger.Info("task created",
		"task_id", task.ID,
		"creator_id", actorID)
	return task, nil
}

// GetTask retrieves one task by ID.
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, NewServiceError("get task", err)
	}
	return task, nil
}

// ListTasks retrieves the tasks visible to the user, newest first.
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	tasks, err := s.tasks.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewServiceError("list tasks", err)
	}
	return tasks, nil
}

// UpdateTask applies the patch to the task. The task row and its activity
// entries commit in one transaction; events are dispatched only after the
// commit. A patch that changes nothing writes nothing and emits nothing.
func (s *TaskService) UpdateTask(
	ctx context.Context,
	actorID uuid.UUID,
	taskID uuid.UUID,
	patch lifecycle.TaskPatch,
	files []content.UploadedFile,
) (*domain.Task, error) {
	snapshot, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, NewServiceError("update task", err)
	}

	cursor := content.NewFileCursor(files)
	task, cs, err := s.machine.ApplyUpdate(ctx, snapshot, patch, actorID, cursor)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedContent) || errors.Is(err, domain.ErrValidation) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, NewServiceError("update task", err)
	}
	s.warnUnusedFiles(taskID, cursor)

	if cs.Empty() {
		return snapshot, nil
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.tasks.WithTx(tx).Update(ctx, task); err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, s.activityLog.WithTx(tx), task.ID, actorID, cs); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, NewServiceError("update task", err)
	}

	s.dispatcher.Dispatch(ctx, task, cs, actorID)

	s.logger.Info("task updated",
		"task_id", task.ID,
		"actor_id", actorID,
		"changed_fields", len(cs.Fields))
	return task, nil
}

// DeleteTask soft-deletes the task. Deletion produces no events.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, id uuid.UUID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return ErrTaskNotFound
		}
		return NewServiceError("delete task", err)
	}

	s.logger.Info("task deleted",
		"task_id", id,
		"actor_id", actorID)
	return nil
}

// ListActivity retrieves a task's activity feed in chronological order.
func (s *TaskService) ListActivity(ctx context.Context, taskID uuid.UUID) ([]*domain.ActivityLogEntry, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	entries, err := s.activityLog.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("list activity", err)
	}
	return entries, nil
}

// warnUnusedFiles notes uploaded files no temporary reference consumed.
func (s *TaskService) warnUnusedFiles(taskID uuid.UUID, cursor *content.FileCursor) {
	if unused := cursor.Unused(); unused > 0 {
		s.logger.Warn("uploaded files left unconsumed by document references",
			"task_id", taskID,
			"unused", unused)
	}
}
