package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/auth"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *fakeMailer) {
	t.Helper()
	users := newFakeUserRepo()
	mail := &fakeMailer{}
	tokens := auth.NewTokenManager("test-secret", "estateman-test", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, tokens, mail, nil), users, mail
}

func TestRegisterTenantStartsGated(t *testing.T) {
	svc, users, mail := newAuthFixture(t)

	user, err := svc.RegisterTenant(context.Background(), RegisterInput{
		Username: "jane", Email: "jane@example.com", Password: "password123",
		FirstName: "Jane", LastName: "Doe", HouseNumber: "A-12",
	})
	if err != nil {
		t.Fatalf("RegisterTenant: %v", err)
	}
	if user.IsActive || user.EmailVerified {
		t.Error("new registration must be inactive and unverified")
	}
	if user.ApprovalStatus != domain.ApprovalPending {
		t.Errorf("status = %s, want pending", user.ApprovalStatus)
	}
	if user.Role != domain.RoleTenant {
		t.Errorf("role = %s, want tenant", user.Role)
	}
	if user.VerifyCode == "" || len(user.VerifyCode) != 6 {
		t.Errorf("verify code = %q, want 6 digits", user.VerifyCode)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if mail.calls != 1 {
		t.Errorf("expected one verification email, got %d sends", mail.calls)
	}

	stored, _ := users.GetByID(user.ID)
	if stored.VerifyCode != user.VerifyCode {
		t.Error("verify code must be persisted")
	}
}

func TestRegisterTenantDuplicateChecks(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, err := svc.RegisterTenant(ctx, RegisterInput{Username: "jane", Email: "jane@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := svc.RegisterTenant(ctx, RegisterInput{Username: "other", Email: "jane@example.com", Password: "password123"}); err == nil {
		t.Error("duplicate email must be rejected")
	}
	if _, err := svc.RegisterTenant(ctx, RegisterInput{Username: "jane", Email: "new@example.com", Password: "password123"}); err == nil {
		t.Error("duplicate username must be rejected")
	}
}

func TestRegisterSucceedsWhenEmailFails(t *testing.T) {
	svc, users, mail := newAuthFixture(t)
	mail.fail = true

	user, err := svc.RegisterTenant(context.Background(), RegisterInput{
		Username: "jane", Email: "jane@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("registration must survive email failure: %v", err)
	}
	if _, err := users.GetByID(user.ID); err != nil {
		t.Errorf("user must be persisted despite email failure: %v", err)
	}
	if mail.calls == 0 {
		t.Error("email send must have been attempted")
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()
	user, _ := svc.RegisterTenant(ctx, RegisterInput{Username: "jane", Email: "jane@example.com", Password: "password123"})

	if _, err := svc.VerifyEmail("jane@example.com", "000000"); err == nil {
		t.Error("wrong code must be rejected")
	}

	verified, err := svc.VerifyEmail("jane@example.com", user.VerifyCode)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if !verified.EmailVerified {
		t.Error("email must be marked verified")
	}
	if verified.IsActive {
		t.Error("verification alone must not activate an unapproved account")
	}
	if verified.VerifyCode != "" {
		t.Error("code must be cleared after use")
	}

	// Repeats are a no-op.
	again, err := svc.VerifyEmail("jane@example.com", "whatever")
	if err != nil || !again.EmailVerified {
		t.Errorf("repeat verification must succeed idempotently, got %v", err)
	}

	// Approval-first then verification opens the gate.
	stored, _ := users.GetByID(user.ID)
	stored.ApprovalStatus = domain.ApprovalApproved
	stored.EmailVerified = false
	stored.VerifyCode = "123456"
	stored.VerifyCodeExpiry = time.Now().Add(time.Hour)
	users.Update(stored)
	activated, err := svc.VerifyEmail("jane@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyEmail after approval: %v", err)
	}
	if !activated.IsActive {
		t.Error("verifying an already-approved account must activate it")
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	user, _ := svc.RegisterTenant(context.Background(), RegisterInput{Username: "jane", Email: "jane@example.com", Password: "password123"})

	stored, _ := users.GetByID(user.ID)
	stored.VerifyCodeExpiry = time.Now().Add(-time.Minute)
	users.Update(stored)

	_, err := svc.VerifyEmail("jane@example.com", stored.VerifyCode)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want validation error for expired code", err)
	}
}

func TestLoginGates(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	user, _ := svc.RegisterTenant(context.Background(), RegisterInput{Username: "jane", Email: "jane@example.com", Password: "password123"})

	// Unknown user and wrong password both yield the generic error.
	if _, err := svc.Login("nobody", "password123"); err == nil || errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unknown user: err = %v, want generic failure", err)
	}
	if _, err := svc.Login("jane", "wrongpassword"); err == nil || errors.Is(err, domain.ErrForbidden) {
		t.Errorf("wrong password: err = %v, want generic failure", err)
	}

	// Correct credentials on a gated account say why.
	if _, err := svc.Login("jane", "password123"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("gated account: err = %v, want ErrForbidden", err)
	}

	stored, _ := users.GetByID(user.ID)
	stored.EmailVerified = true
	stored.ApprovalStatus = domain.ApprovalApproved
	stored.IsActive = true
	users.Update(stored)

	result, err := svc.Login("jane", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected token pair")
	}
	if result.TokenType != "Bearer" {
		t.Errorf("token type = %q", result.TokenType)
	}

	// Email works as the login identifier too.
	if _, err := svc.Login("jane@example.com", "password123"); err != nil {
		t.Errorf("login by email: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	user, _ := svc.RegisterTenant(context.Background(), RegisterInput{Username: "jane", Email: "jane@example.com", Password: "password123"})
	stored, _ := users.GetByID(user.ID)
	stored.EmailVerified = true
	stored.ApprovalStatus = domain.ApprovalApproved
	stored.IsActive = true
	users.Update(stored)

	result, err := svc.Login("jane", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.Refresh(result.RefreshToken); err != nil {
		t.Errorf("Refresh with refresh token: %v", err)
	}
	if _, err := svc.Refresh(result.AccessToken); err == nil {
		t.Error("an access token must not pass as a refresh token")
	}

	// Deactivation revokes refresh capability.
	stored.IsActive = false
	users.Update(stored)
	if _, err := svc.Refresh(result.RefreshToken); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("refresh on disabled account: err = %v, want ErrForbidden", err)
	}
}

func TestCreateStaff(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	result, err := svc.CreateStaff(ctx, admin, StaffInput{
		Username: "tech1", Email: "tech1@example.com",
		Role: domain.RoleTechnician, Specialization: domain.SpecPlumbing,
	})
	if err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	if !result.User.IsActive || result.User.ApprovalStatus != domain.ApprovalApproved {
		t.Error("staff accounts skip the approval gate")
	}
	if result.User.ProfileCompleted {
		t.Error("staff must be forced through profile completion")
	}
	if len(result.TemporaryPassword) != 12 {
		t.Errorf("temporary password length = %d, want 12", len(result.TemporaryPassword))
	}

	// The temporary password actually works.
	if _, err := svc.Login("tech1", result.TemporaryPassword); err != nil {
		t.Errorf("login with temporary password: %v", err)
	}

	if _, err := svc.CreateStaff(ctx, admin, StaffInput{Username: "t2", Role: domain.RoleTenant}); err == nil {
		t.Error("tenant is not a staff role")
	}
	if _, err := svc.CreateStaff(ctx, domain.Actor{ID: 2, Role: domain.RoleManager}, StaffInput{Username: "t3", Role: domain.RoleTechnician}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("manager CreateStaff: err = %v, want ErrForbidden", err)
	}
}

func TestCompleteProfileRunsOnce(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}
	result, err := svc.CreateStaff(ctx, admin, StaffInput{Username: "tech1", Role: domain.RoleTechnician})
	if err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	actor := domain.Actor{ID: result.User.ID, Role: domain.RoleTechnician}

	done, err := svc.CompleteProfile(actor, CompleteProfileInput{
		Email: "tech1@example.com", Phone: "0700000000", NewPassword: "chosen-password",
	})
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if !done.ProfileCompleted {
		t.Error("profile must be marked completed")
	}
	if _, err := svc.Login("tech1", "chosen-password"); err != nil {
		t.Errorf("login with chosen password: %v", err)
	}
	if _, err := svc.Login("tech1", result.TemporaryPassword); err == nil {
		t.Error("temporary password must stop working")
	}

	if _, err := svc.CompleteProfile(actor, CompleteProfileInput{NewPassword: "another-pass"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second completion: err = %v, want ErrConflict", err)
	}
}

func TestResetPasswordReopensProfileFlow(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	ctx := context.Background()
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}
	created, _ := svc.CreateStaff(ctx, admin, StaffInput{Username: "mgr", Role: domain.RoleManager})
	actor := domain.Actor{ID: created.User.ID, Role: domain.RoleManager}
	if _, err := svc.CompleteProfile(actor, CompleteProfileInput{NewPassword: "chosen-password"}); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}

	reset, err := svc.ResetPassword(ctx, admin, created.User.ID)
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	stored, _ := users.GetByID(created.User.ID)
	if stored.ProfileCompleted {
		t.Error("reset must force profile completion again")
	}
	if _, err := svc.Login("mgr", reset.TemporaryPassword); err != nil {
		t.Errorf("login with new temporary password: %v", err)
	}
	if _, err := svc.Login("mgr", "chosen-password"); err == nil {
		t.Error("old password must stop working after reset")
	}
}

func TestUpdateProfileRequiresOldPassword(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	user, _ := svc.RegisterTenant(context.Background(), RegisterInput{Username: "jane", Email: "jane@example.com", Password: "password123"})
	stored, _ := users.GetByID(user.ID)
	stored.EmailVerified = true
	stored.ApprovalStatus = domain.ApprovalApproved
	stored.IsActive = true
	users.Update(stored)
	actor := domain.Actor{ID: user.ID, Role: domain.RoleTenant}

	if _, err := svc.UpdateProfile(actor, UpdateProfileInput{OldPassword: "wrong", NewPassword: "newpassword"}); err == nil {
		t.Error("password change without the old password must fail")
	}
	if _, err := svc.UpdateProfile(actor, UpdateProfileInput{OldPassword: "password123", NewPassword: "newpassword"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if _, err := svc.Login("jane", "newpassword"); err != nil {
		t.Errorf("login with changed password: %v", err)
	}

	// Contact-only updates need no password.
	if _, err := svc.UpdateProfile(actor, UpdateProfileInput{Phone: "0711111111"}); err != nil {
		t.Errorf("contact update: %v", err)
	}
	stored, _ = users.GetByID(user.ID)
	if stored.Phone != "0711111111" {
		t.Errorf("phone = %q", stored.Phone)
	}
}
