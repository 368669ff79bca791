package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// NotificationsHandler handles in-app notification endpoints
type NotificationsHandler struct {
	notificationService *service.NotificationService
	logger              *slog.Logger
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(notificationService *service.NotificationService, logger *slog.Logger) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationsHandler{notificationService: notificationService, logger: logger}
}

// NotificationResponse is the notification shape returned to clients
type NotificationResponse struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func notificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

func notificationResponses(notifications []*domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationResponse(n))
	}
	return out
}

// List handles GET /api/notifications, optionally ?unread=true
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notificationService.ListFor(actor, unreadOnly)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notificationResponses(notifications)})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "marked read"})
}
