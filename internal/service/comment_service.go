package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/activity"
	"github.com/taskflow-app/taskflow-api/internal/content"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/lifecycle"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// CommentInput is the payload for adding a comment to a task.
type CommentInput struct {
	ParentID *uuid.UUID
	Type     domain.CommentType
	Content  json.RawMessage
	Files    []content.UploadedFile
}

// CommentService implements the commenting use cases. A completion report
// is a comment that additionally moves the task into verification: the
// comment, the status write and the activity entries commit in one
// transaction, and both the comment event and the status event fan out
// after the commit.
type CommentService struct {
	db          *sql.DB
	tasks       store.TaskStore
	comments    store.CommentStore
	activityLog store.ActivityLogStore
	resolver    *content.Resolver
	machine     *lifecycle.StateMachine
	recorder    *activity.Recorder
	dispatcher  EventDispatcher
	logger      *slog.Logger
}

// NewCommentService creates a CommentService with all its collaborators.
func NewCommentService(
	db *sql.DB,
	tasks store.TaskStore,
	comments store.CommentStore,
	activityLog store.ActivityLogStore,
	resolver *content.Resolver,
	machine *lifecycle.StateMachine,
	recorder *activity.Recorder,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) *CommentService {
	if db == nil || tasks == nil || comments == nil || activityLog == nil ||
		resolver == nil || machine == nil || recorder == nil || dispatcher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependencies
		panic("all dependencies are required for CommentService")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CommentService")
	}

	return &CommentService{
		db:          db,
		tasks:       tasks,
		comments:    comments,
		activityLog: activityLog,
		resolver:    resolver,
		machine:     machine,
		recorder:    recorder,
		dispatcher:  dispatcher,
		logger:      logger.With(slog.String("component", "comment_service")),
	}
}

// AddComment persists a comment on the task. Rich-text content is
// normalized through the resolver with the request's uploaded files. For a
// completion report the task additionally lands in pending verification
// within the same transaction.
func (s *CommentService) AddComment(
	ctx context.Context,
	actorID uuid.UUID,
	taskID uuid.UUID,
	input CommentInput,
) (*domain.Comment, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, NewServiceError("add comment", err)
	}

	if input.ParentID != nil {
		if err := s.checkParent(ctx, taskID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	cursor := content.NewFileCursor(input.Files)
	normalized, err := s.normalizeContent(ctx, input.Content, cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	commentType := input.Type
	if commentType == "" {
		commentType = domain.CommentTypeComment
	}

	comment, err := domain.NewComment(taskID, actorID, input.ParentID, commentType, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// A completion report moves the task to pending verification alongside
	// the comment itself.
	var updated *domain.Task
	var cs lifecycle.ChangeSet
	if comment.IsCompletionReport() {
		status := domain.TaskStatusPendingVerification
		updated, cs, err = s.machine.ApplyUpdate(ctx, task, lifecycle.TaskPatch{Status: &status}, actorID, cursor)
		if err != nil {
			return nil, NewServiceError("add comment", err)
		}
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.comments.WithTx(tx).Create(ctx, comment); err != nil {
			return err
		}
		logStore := s.activityLog.WithTx(tx)
		if _, err := s.recorder.RecordCommentAdded(ctx, logStore, comment); err != nil {
			return err
		}
		if updated != nil && !cs.Empty() {
			if err := s.tasks.WithTx(tx).Update(ctx, updated); err != nil {
				return err
			}
			if _, err := s.recorder.Record(ctx, logStore, updated.ID, actorID, cs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("add comment", err)
	}

	if updated != nil && !cs.Empty() {
		task = updated
		s.dispatcher.Dispatch(ctx, task, cs, actorID)
	}
	s.dispatcher.DispatchCommentAdded(ctx, task, comment)

	s.logger.Info("comment added",
		"comment_id", comment.ID,
		"task_id", taskID,
		"type", string(comment.Type))
	return comment, nil
}

// ListComments retrieves the task's comment tree.
func (s *CommentService) ListComments(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, NewServiceError("list comments", err)
	}

	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("list comments", err)
	}
	return comments, nil
}

// checkParent enforces the two-level comment tree: the parent must exist,
// belong to the same task, and itself be a top-level comment.
func (s *CommentService) checkParent(ctx context.Context, taskID, parentID uuid.UUID) error {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrCommentNotFound
		}
		return NewServiceError("add comment", err)
	}

	if parent.TaskID != taskID {
		return ErrParentMismatch
	}
	if parent.ParentID != nil {
		return ErrReplyDepthExceeded
	}
	return nil
}

// normalizeContent parses and resolves a comment document against the
// shared file cursor.
func (s *CommentService) normalizeContent(
	ctx context.Context,
	raw json.RawMessage,
	cursor *content.FileCursor,
) (json.RawMessage, error) {
	doc, err := content.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Resolve(ctx, doc, cursor); err != nil {
		return nil, err
	}
	return doc.Marshal()
}
