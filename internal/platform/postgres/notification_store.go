package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow-app/taskflow-api/internal/domain"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of
// the NotificationStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, record *domain.NotificationRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", record.ID.String()))
		return err
	}

	query := `
		INSERT INTO notifications (id, user_id, title, content, type, is_push, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.UserID,
		record.Title,
		record.Content,
		record.Type,
		record.IsPush,
		record.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", record.ID.String()),
			slog.String("user_id", record.UserID.String()))
		return MapError(err)
	}

	return nil
}

// ListByUser implements store.NotificationStore.ListByUser
// Soft-deleted notifications are excluded; newest first.
func (s *PostgresNotificationStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.NotificationRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, content, type, is_push, created_at
		FROM notifications
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.NotificationRecord
	for rows.Next() {
		var record domain.NotificationRecord
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Title,
			&record.Content,
			&record.Type,
			&record.IsPush,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notification rows: %w", err)
	}

	return records, nil
}

// Delete implements store.NotificationStore.Delete
// The user ID scopes the delete so users can only prune their own list.
func (s *PostgresNotificationStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notifications
		SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, userID, time.Now().UTC())
	if err != nil {
		log.Error("failed to delete notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// PostgresPushSubscriptionStore implements the store.PushSubscriptionStore
// interface using a PostgreSQL database as the storage backend.
type PostgresPushSubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPushSubscriptionStore creates a new PostgreSQL implementation
// of the PushSubscriptionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPushSubscriptionStore(db store.DBTX, logger *slog.Logger) *PostgresPushSubscriptionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPushSubscriptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "push_subscription_store")),
	}
}

// Ensure PostgresPushSubscriptionStore implements store.PushSubscriptionStore interface
var _ store.PushSubscriptionStore = (*PostgresPushSubscriptionStore)(nil)

// Upsert implements store.PushSubscriptionStore.Upsert
// A conflicting row, soft-deleted or not, is updated and restored rather
// than duplicated: one active subscription per user.
func (s *PostgresPushSubscriptionStore) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sub.Validate(); err != nil {
		log.Warn("push subscription validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", sub.UserID.String()))
		return err
	}

	query := `
		INSERT INTO push_subscriptions (user_id, endpoint, keys, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET endpoint = EXCLUDED.endpoint,
			keys = EXCLUDED.keys,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		sub.UserID,
		sub.Endpoint,
		nullableJSON(sub.Keys),
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert push subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", sub.UserID.String()))
		return MapError(err)
	}

	log.Info("push subscription saved", slog.String("user_id", sub.UserID.String()))
	return nil
}

// GetByUser implements store.PushSubscriptionStore.GetByUser
// Returns store.ErrSubscriptionNotFound if the user has no active subscription.
func (s *PostgresPushSubscriptionStore) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.PushSubscription, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, endpoint, keys, created_at, updated_at
		FROM push_subscriptions
		WHERE user_id = $1 AND deleted_at IS NULL
	`
	var sub domain.PushSubscription
	var keys []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.UserID,
		&sub.Endpoint,
		&keys,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubscriptionNotFound
		}
		log.Error("failed to get push subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	sub.Keys = keys

	return &sub, nil
}

// Delete implements store.PushSubscriptionStore.Delete
func (s *PostgresPushSubscriptionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE push_subscriptions
		SET deleted_at = $2
		WHERE user_id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		log.Error("failed to delete push subscription",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrSubscriptionNotFound)
}
