package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/estateman/internal/domain"
)

// PostgresNotificationRepository implements domain.NotificationRepository
// using PostgreSQL
type PostgresNotificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresNotificationRepository creates a new notification repository
func NewPostgresNotificationRepository(db *sql.DB, logger *slog.Logger) *PostgresNotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationRepository{db: db, logger: logger}
}

// Create inserts a new notification
func (r *PostgresNotificationRepository) Create(n *domain.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, message, link, is_read)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query, n.RecipientID, n.Message, n.Link, n.IsRead).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by ID
func (r *PostgresNotificationRepository) GetByID(id int64) (*domain.Notification, error) {
	n := &domain.Notification{}
	err := r.db.QueryRow(
		`SELECT id, recipient_id, message, link, is_read, created_at FROM notifications WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.RecipientID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// MarkRead flags a notification as read
func (r *PostgresNotificationRepository) MarkRead(id int64) error {
	res, err := r.db.Exec(`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByRecipient returns a recipient's notifications, newest first
func (r *PostgresNotificationRepository) ListByRecipient(recipientID int64, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT id, recipient_id, message, link, is_read, created_at FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	return r.queryNotifications(query, recipientID)
}

// ListUnreadSince returns unread notifications created after the given id,
// oldest first
func (r *PostgresNotificationRepository) ListUnreadSince(recipientID int64, afterID int64) ([]*domain.Notification, error) {
	return r.queryNotifications(`
		SELECT id, recipient_id, message, link, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1 AND is_read = FALSE AND id > $2
		ORDER BY id
	`, recipientID, afterID)
}

func (r *PostgresNotificationRepository) queryNotifications(query string, args ...any) ([]*domain.Notification, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
