package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/audit"
	"github.com/yourorg/estateman/internal/security/auth"
	"github.com/yourorg/estateman/internal/security/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bearerFor(t *testing.T, tm *auth.TokenManager, user *domain.User) string {
	t.Helper()
	access, _, err := tm.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	return "Bearer " + access
}

func TestAuditAfterJWTRecordsActor(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "estateman-test", 15*time.Minute, time.Hour)
	var buf bytes.Buffer
	auditLog := audit.NewLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := JWTMiddleware(tm, discardLogger())(AuditMiddleware(auditLog)(next))

	req := httptest.NewRequest(http.MethodPost, "/api/users/5/approve", nil)
	req.Header.Set("Authorization", bearerFor(t, tm, &domain.User{ID: 9, Username: "admin", Role: domain.RoleAdmin}))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	entry := buf.String()
	if !strings.Contains(entry, "user_id=9") {
		t.Errorf("audit entry missing actor id: %s", entry)
	}
	if !strings.Contains(entry, "role=admin") {
		t.Errorf("audit entry missing role: %s", entry)
	}
	if !strings.Contains(entry, "action=approve") {
		t.Errorf("audit entry missing action: %s", entry)
	}
}

func TestRateLimitAfterJWTBucketsPerUser(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "estateman-test", 15*time.Minute, time.Hour)
	limiter := ratelimit.NewLimiter(2, time.Minute)
	defer limiter.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := JWTMiddleware(tm, discardLogger())(RateLimitMiddleware(limiter, discardLogger())(next))

	hit := func(authHeader string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/houses", nil)
		req.Header.Set("Authorization", authHeader)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		return rec.Code
	}

	first := bearerFor(t, tm, &domain.User{ID: 1, Username: "one", Role: domain.RoleTenant})
	second := bearerFor(t, tm, &domain.User{ID: 2, Username: "two", Role: domain.RoleTenant})

	if code := hit(first); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := hit(first); code != http.StatusOK {
		t.Fatalf("second request = %d", code)
	}
	if code := hit(first); code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", code)
	}
	// A different user has their own bucket.
	if code := hit(second); code != http.StatusOK {
		t.Errorf("other user's request = %d, want 200", code)
	}
}

func TestJWTPassesPreflightThrough(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "estateman-test", 15*time.Minute, time.Hour)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})
	chain := JWTMiddleware(tm, discardLogger())(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/houses", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if !reached {
		t.Error("preflight request must bypass token validation")
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestJWTRejectsMissingAndBadTokens(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "estateman-test", 15*time.Minute, time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	chain := JWTMiddleware(tm, discardLogger())(next)

	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/api/houses", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}
