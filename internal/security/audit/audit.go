package audit

import (
	"context"
	"log/slog"
	"time"
)

// RequestIDKey is the context key under which the HTTP layer stores the request ID.
type RequestIDKey struct{}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, role, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID, ok := ctx.Value(RequestIDKey{}).(string); ok {
		requestID = reqID
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogApproval(ctx context.Context, userID, role, targetUserID, status, details string) {
	al.LogAction(ctx, userID, role, "approve", "user", targetUserID, status, details)
}

func (al *Logger) LogVerification(ctx context.Context, userID, role, paymentID, status, details string) {
	al.LogAction(ctx, userID, role, "verify", "payment", paymentID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, userID, role, reason string) {
	al.LogAction(ctx, userID, role, "access_denied", "api", "", "denied", reason)
}
