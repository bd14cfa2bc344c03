package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// PostgresActivityLogStore implements the store.ActivityLogStore interface
// using a PostgreSQL database as the storage backend. The table is
// append-only.
type PostgresActivityLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActivityLogStore creates a new PostgreSQL implementation of
// the ActivityLogStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresActivityLogStore(db store.DBTX, logger *slog.Logger) *PostgresActivityLogStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresActivityLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_log_store")),
	}
}

// Ensure PostgresActivityLogStore implements store.ActivityLogStore interface
var _ store.ActivityLogStore = (*PostgresActivityLogStore)(nil)

// Create implements store.ActivityLogStore.Create
// Returns store.ErrInvalidEntity if the task or actor doesn't exist.
func (s *PostgresActivityLogStore) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("activity entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO activity_log (id, task_id, actor_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.TaskID,
		entry.ActorID,
		entry.Action,
		[]byte(entry.Payload),
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create activity entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("task_id", entry.TaskID.String()))
		return MapError(err)
	}

	log.Debug("activity entry created",
		slog.String("entry_id", entry.ID.String()),
		slog.String("task_id", entry.TaskID.String()),
		slog.String("action", string(entry.Action)))
	return nil
}

// ListByTask implements store.ActivityLogStore.ListByTask
// Entries come back in chronological order for feed reconstruction.
func (s *PostgresActivityLogStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.ActivityLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, task_id, actor_id, action, payload, created_at
		FROM activity_log
		WHERE task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to list activity entries",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.ActivityLogEntry
	for rows.Next() {
		var entry domain.ActivityLogEntry
		var payload []byte
		err := rows.Scan(
			&entry.ID,
			&entry.TaskID,
			&entry.ActorID,
			&entry.Action,
			&payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		entry.Payload = payload
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}

	return entries, nil
}

// WithTx implements store.ActivityLogStore.WithTx
func (s *PostgresActivityLogStore) WithTx(tx *sql.Tx) store.ActivityLogStore {
	return &PostgresActivityLogStore{
		db:     tx,
		logger: s.logger,
	}
}
