package domain

import "time"

// Notification is an in-app message produced as a side effect of state
// changes elsewhere. Creating one must never fail the parent operation.
type Notification struct {
	ID          int64
	RecipientID int64
	Message     string
	Link        string
	IsRead      bool
	CreatedAt   time.Time
}

// NotificationRepository defines data access for notifications.
type NotificationRepository interface {
	Create(n *Notification) error
	GetByID(id int64) (*Notification, error)
	MarkRead(id int64) error
	ListByRecipient(recipientID int64, unreadOnly bool) ([]*Notification, error)
	// ListUnreadSince returns a recipient's unread notifications created
	// after the given id, oldest first. Used by the websocket stream.
	ListUnreadSince(recipientID int64, afterID int64) ([]*Notification, error)
}
