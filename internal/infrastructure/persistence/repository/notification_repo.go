package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/oakline/maintflow/internal/application/port"
	"github.com/oakline/maintflow/internal/domain/entity"
	"github.com/oakline/maintflow/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create inserts a new notification and fills in its ID
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, type, is_read, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Int64("user_id", n.UserID), zap.Error(err))
		return fmt.Errorf("create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification insert id: %w", err)
	}
	n.ID = id
	return nil
}

// GetByID retrieves a notification by its ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at, updated_at
		FROM notifications WHERE id = ?
	`
	n, err := scanNotification(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification %d: %w", id, port.ErrNotFound)
		}
		return nil, fmt.Errorf("get notification %d: %w", id, err)
	}
	return n, nil
}

// ListByUserID retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at, updated_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	return r.queryMany(ctx, query, userID, limit, offset)
}

// ListUnreadByUserID retrieves a user's unread notifications, newest first
func (r *NotificationRepository) ListUnreadByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at, updated_at
		FROM notifications WHERE user_id = ? AND is_read = 0 ORDER BY created_at DESC
	`
	return r.queryMany(ctx, query, userID)
}

func (r *NotificationRepository) queryMany(ctx context.Context, query string, args ...any) ([]*entity.Notification, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	query := `UPDATE notifications SET is_read = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return requireRowAffected(result, fmt.Sprintf("notification %d", id))
}

// Delete removes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return requireRowAffected(result, fmt.Sprintf("notification %d", id))
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var n entity.Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
