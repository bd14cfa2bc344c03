package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// PostgresCommentStore implements the store.CommentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the
// CommentStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

// Ensure PostgresCommentStore implements store.CommentStore interface
var _ store.CommentStore = (*PostgresCommentStore)(nil)

const commentColumns = `id, task_id, author_id, parent_id, type, content, created_at`

// scanComment reads one comment row into a domain.Comment.
func scanComment(row interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var comment domain.Comment
	var parentID uuid.NullUUID
	var content []byte

	err := row.Scan(
		&comment.ID,
		&comment.TaskID,
		&comment.AuthorID,
		&parentID,
		&comment.Type,
		&content,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if parentID.Valid {
		comment.ParentID = &parentID.UUID
	}

	return &comment, nil
}

// Create implements store.CommentStore.Create
// Returns store.ErrInvalidEntity if the task or author doesn't exist.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := comment.Validate(); err != nil {
		log.Warn("comment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()))
		return err
	}

	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		comment.ID,
		comment.TaskID,
		comment.AuthorID,
		comment.ParentID,
		comment.Type,
		[]byte(comment.Content),
		comment.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create comment",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()),
			slog.String("task_id", comment.TaskID.String()))
		return MapError(err)
	}

	log.Info("comment created",
		slog.String("comment_id", comment.ID.String()),
		slog.String("task_id", comment.TaskID.String()),
		slog.String("type", string(comment.Type)))
	return nil
}

// GetByID implements store.CommentStore.GetByID
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE id = $1
	`
	comment, err := scanComment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("comment not found", slog.String("comment_id", id.String()))
			return nil, store.ErrCommentNotFound
		}
		log.Error("failed to get comment by ID",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return nil, MapError(err)
	}

	return comment, nil
}

// ListByTask implements store.CommentStore.ListByTask
// It returns the task's comments as a two-level tree: top-level comments in
// chronological order, each with its replies attached chronologically.
// Replies whose parent is missing are dropped, not promoted.
func (s *PostgresCommentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to list comments",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var roots []*domain.Comment
	byID := make(map[uuid.UUID]*domain.Comment)
	var replies []*domain.Comment

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		if comment.ParentID == nil {
			roots = append(roots, comment)
			byID[comment.ID] = comment
		} else {
			replies = append(replies, comment)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}

	for _, reply := range replies {
		parent, ok := byID[*reply.ParentID]
		if !ok {
			log.Warn("reply references missing parent, dropping",
				slog.String("comment_id", reply.ID.String()),
				slog.String("parent_id", reply.ParentID.String()))
			continue
		}
		parent.Replies = append(parent.Replies, reply)
	}

	return roots, nil
}

// WithTx implements store.CommentStore.WithTx
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{
		db:     tx,
		logger: s.logger,
	}
}
