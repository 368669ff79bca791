package service

import (
	"log/slog"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/observability/metrics"
)

// NotificationService creates and reads in-app notifications. Creation is
// deliberately fire-and-forget: a notification failure must never abort
// the state change that triggered it.
type NotificationService struct {
	repo   domain.NotificationRepository
	logger *slog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo domain.NotificationRepository, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Notify creates a notification for the recipient. Errors are logged and
// swallowed.
func (s *NotificationService) Notify(recipientID int64, message, link string) {
	n := &domain.Notification{
		RecipientID: recipientID,
		Message:     message,
		Link:        link,
	}
	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to create notification",
			slog.Int64("recipient_id", recipientID),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveNotification()
}

// ListFor returns the caller's own notifications.
func (s *NotificationService) ListFor(actor domain.Actor, unreadOnly bool) ([]*domain.Notification, error) {
	return s.repo.ListByRecipient(actor.ID, unreadOnly)
}

// MarkRead flags one of the caller's notifications as read. Reading
// another user's notification is forbidden.
func (s *NotificationService) MarkRead(actor domain.Actor, id int64) error {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if n.RecipientID != actor.ID {
		return domain.ErrForbidden
	}
	return s.repo.MarkRead(id)
}

// UnreadSince returns the caller's unread notifications created after the
// given id, oldest first. Used by the websocket stream.
func (s *NotificationService) UnreadSince(actor domain.Actor, afterID int64) ([]*domain.Notification, error) {
	return s.repo.ListUnreadSince(actor.ID, afterID)
}
