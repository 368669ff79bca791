package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/estateman/internal/security/auth"
	"github.com/yourorg/estateman/internal/service"
)

// NotificationStreamHandler pushes a user's unread notifications over a
// WebSocket. Browsers cannot set headers on websocket upgrades, so the
// access token arrives as a ?token= query parameter instead.
type NotificationStreamHandler struct {
	notificationService *service.NotificationService
	tokens              *auth.TokenManager
	logger              *slog.Logger
	allowedOrigins      []string
	pollInterval        time.Duration
}

// NewNotificationStreamHandler creates a new notification stream handler
func NewNotificationStreamHandler(notificationService *service.NotificationService, tokens *auth.TokenManager, logger *slog.Logger, allowedOrigins []string) *NotificationStreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationStreamHandler{
		notificationService: notificationService,
		tokens:              tokens,
		logger:              logger,
		allowedOrigins:      allowedOrigins,
		pollInterval:        3 * time.Second,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *NotificationStreamHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/notifications
func (h *NotificationStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.tokens.ValidateToken(tokenString, auth.TokenTypeAccess)
	if err != nil {
		h.logger.Debug("websocket token rejected", slog.String("error", err.Error()))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	actor := claims.Actor()

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	h.logger.Debug("notification stream opened", slog.Int64("user_id", actor.ID))

	// Drain client frames so close messages are processed; the channel
	// also tells us when the peer goes away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastID int64
	for {
		notifications, err := h.notificationService.UnreadSince(actor, lastID)
		if err != nil {
			h.logger.Error("failed to poll notifications",
				slog.Int64("user_id", actor.ID),
				slog.String("error", err.Error()),
			)
		} else {
			for _, n := range notifications {
				if err := ws.WriteJSON(notificationResponse(n)); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						h.logger.Debug("notification stream write failed", slog.Int64("user_id", actor.ID))
					}
					return
				}
				lastID = n.ID
			}
		}

		_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))

		select {
		case <-ticker.C:
		case <-closed:
			h.logger.Debug("notification stream closed", slog.Int64("user_id", actor.ID))
			return
		case <-r.Context().Done():
			return
		}
	}
}
