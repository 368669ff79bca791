package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/audit"
	"github.com/yourorg/estateman/internal/security/auth"
	"github.com/yourorg/estateman/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// isPublic reports whether the path is reachable without a token. The
// websocket endpoint authenticates itself from a query parameter since
// browsers cannot set headers on websocket upgrades.
func isPublic(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics",
		"/api/auth/register", "/api/auth/login",
		"/api/auth/verify-email", "/api/auth/refresh":
		return true
	}
	return strings.HasPrefix(path, "/ws/")
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Preflight requests carry no Authorization header; the CORS
			// layer downstream answers them.
			if r.Method == http.MethodOptions || isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString, auth.TokenTypeAccess)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware applies the default limit per authenticated user
// and a strict per-address limit on the credential endpoints.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/auth/login" || r.URL.Path == "/api/auth/register" {
				if !limiter.AllowStrict(remoteHost(r), 10, time.Minute) {
					log.Warn("rate limit exceeded on auth endpoint", slog.String("remote", remoteHost(r)))
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			key := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = strconv.FormatInt(claims.UserID, 10)
			}
			if !limiter.Allow(key) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records the admin actions that change account and
// money state.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			role := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				userID = strconv.FormatInt(claims.UserID, 10)
				role = claims.Role
			}

			switch {
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/approve"):
				auditLog.LogApproval(r.Context(), userID, role, r.PathValue("id"), "initiated", "")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reject"):
				auditLog.LogAction(r.Context(), userID, role, "reject", "user", r.PathValue("id"), "initiated", "")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/verify"):
				auditLog.LogVerification(r.Context(), userID, role, r.PathValue("id"), "initiated", "")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reset_password"):
				auditLog.LogAction(r.Context(), userID, role, "reset_password", "user", r.PathValue("id"), "initiated", "")
			case r.Method == http.MethodDelete:
				auditLog.LogAction(r.Context(), userID, role, "delete", resourceFromPath(r.URL.Path), r.PathValue("id"), "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func resourceFromPath(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/api/"), "/")
	if len(parts) > 0 {
		return strings.TrimSuffix(parts[0], "s")
	}
	return "api"
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

// CurrentActor extracts the authenticated actor, reporting false when
// the request carried no valid token.
func CurrentActor(ctx context.Context) (domain.Actor, bool) {
	claims := GetClaimsFromContext(ctx)
	if claims == nil {
		return domain.Actor{}, false
	}
	return claims.Actor(), true
}
