package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/yourorg/estateman/internal/domain"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", "estateman-test", 15*time.Minute, 24*time.Hour)
}

func TestGeneratePairRoundTrip(t *testing.T) {
	tm := newTestManager()
	user := &domain.User{ID: 7, Username: "jdoe", Role: domain.RoleAdmin}

	access, refresh, err := tm.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens should differ")
	}

	claims, err := tm.ValidateToken(access, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ValidateToken(access): %v", err)
	}
	if claims.UserID != 7 || claims.Username != "jdoe" || claims.Role != string(domain.RoleAdmin) {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "estateman-test" {
		t.Errorf("issuer = %q", claims.Issuer)
	}

	actor := claims.Actor()
	if actor.ID != 7 || actor.Role != domain.RoleAdmin {
		t.Errorf("actor = %+v", actor)
	}

	if _, err := tm.ValidateToken(refresh, TokenTypeRefresh); err != nil {
		t.Fatalf("ValidateToken(refresh): %v", err)
	}
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	tm := newTestManager()
	user := &domain.User{ID: 1, Username: "jdoe", Role: domain.RoleTenant}

	access, refresh, err := tm.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	if _, err := tm.ValidateToken(access, TokenTypeRefresh); err == nil {
		t.Error("access token accepted as refresh")
	}
	if _, err := tm.ValidateToken(refresh, TokenTypeAccess); err == nil {
		t.Error("refresh token accepted as access")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	user := &domain.User{ID: 1, Username: "jdoe", Role: domain.RoleTenant}

	access, _, err := newTestManager().GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	other := NewTokenManager("other-secret", "estateman-test", time.Minute, time.Hour)
	if _, err := other.ValidateToken(access, TokenTypeAccess); err == nil {
		t.Error("token signed with a different secret was accepted")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	tm := newTestManager()
	for _, tok := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := tm.ValidateToken(tok, TokenTypeAccess); err == nil {
			t.Errorf("garbage token %q was accepted", tok)
		}
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "estateman-test", -time.Minute, time.Hour)
	user := &domain.User{ID: 1, Username: "jdoe", Role: domain.RoleTenant}

	access, _, err := tm.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, err := tm.ValidateToken(access, TokenTypeAccess); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	tm := newTestManager()
	user := &domain.User{ID: 1, Username: "jdoe", Role: domain.Role("superuser")}

	access, _, err := tm.GeneratePair(user)
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, err := tm.ValidateToken(access, TokenTypeAccess); err == nil {
		t.Error("token with unknown role was accepted")
	}
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc123")
	if err != nil {
		t.Fatalf("ExtractToken: %v", err)
	}
	if tok != "abc123" {
		t.Errorf("token = %q", tok)
	}

	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer a b"} {
		if _, err := ExtractToken(header); err == nil {
			t.Errorf("header %q should be rejected", header)
		}
	}
}

func TestNewTokenManagerDefaults(t *testing.T) {
	tm := NewTokenManager("", "", 0, 0)
	if tm.AccessTTL() != 15*time.Minute {
		t.Errorf("default access TTL = %v", tm.AccessTTL())
	}
	if !strings.Contains(tm.issuer, "estateman") {
		t.Errorf("default issuer = %q", tm.issuer)
	}
}
