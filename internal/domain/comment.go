package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CommentType discriminates ordinary comments from completion reports.
type CommentType string

// Possible comment type values
const (
	// CommentTypeComment is an ordinary discussion comment.
	CommentTypeComment CommentType = "comment"

	// CommentTypeCompletionReport signals the assignee believes the task is
	// done; posting one moves the task into pending verification.
	CommentTypeCompletionReport CommentType = "completion_report"
)

// Comment-specific validation errors
var (
	// ErrCommentIDEmpty is returned when a comment ID is empty or nil.
	ErrCommentIDEmpty = errors.New("comment ID cannot be empty")

	// ErrCommentTaskIDEmpty is returned when a comment's task ID is empty or nil.
	ErrCommentTaskIDEmpty = errors.New("comment task ID cannot be empty")

	// ErrCommentAuthorEmpty is returned when a comment's author ID is empty or nil.
	ErrCommentAuthorEmpty = errors.New("comment author ID cannot be empty")

	// ErrCommentContentEmpty is returned when a comment's content is empty.
	ErrCommentContentEmpty = errors.New("comment content cannot be empty")
)

// Comment is a rich-text message on a task. Comments form a two-level reply
// tree: a top-level comment (ParentID nil) may have replies, replies have no
// further children.
type Comment struct {
	ID        uuid.UUID       `json:"id"`
	TaskID    uuid.UUID       `json:"task_id"`
	AuthorID  uuid.UUID       `json:"author_id"`
	ParentID  *uuid.UUID      `json:"parent_id,omitempty"`
	Type      CommentType     `json:"type"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	Replies   []*Comment      `json:"replies,omitempty"`
}

// NewComment creates a new Comment on the given task.
// It generates a new UUID for the comment ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewComment(
	taskID, authorID uuid.UUID,
	parentID *uuid.UUID,
	commentType CommentType,
	content json.RawMessage,
) (*Comment, error) {
	comment := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		ParentID:  parentID,
		Type:      commentType,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := comment.Validate(); err != nil {
		return nil, err
	}

	return comment, nil
}

// Validate checks if the Comment has valid data.
// Returns an error if any field fails validation.
func (c *Comment) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCommentIDEmpty
	}

	if c.TaskID == uuid.Nil {
		return ErrCommentTaskIDEmpty
	}

	if c.AuthorID == uuid.Nil {
		return ErrCommentAuthorEmpty
	}

	if c.Type != CommentTypeComment && c.Type != CommentTypeCompletionReport {
		return ErrInvalidCommentType
	}

	if len(c.Content) == 0 {
		return ErrCommentContentEmpty
	}

	return nil
}

// IsCompletionReport reports whether the comment is a completion report.
func (c *Comment) IsCompletionReport() bool {
	return c.Type == CommentTypeCompletionReport
}
