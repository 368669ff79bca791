package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/infrastructure/mailer"
	"github.com/yourorg/estateman/internal/observability/metrics"
	"github.com/yourorg/estateman/internal/reliability/retry"
	"github.com/yourorg/estateman/internal/security/auth"
	"github.com/yourorg/estateman/internal/security/password"
)

const verifyCodeTTL = 15 * time.Minute

// AuthService handles registration, email verification, login and account
// maintenance. Outbound email is best-effort everywhere: a failed send is
// logged and the operation still succeeds.
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	mail   mailer.Mailer
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, mail mailer.Mailer, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if mail == nil {
		mail = mailer.NewNoop(logger)
	}
	return &AuthService{users: users, tokens: tokens, mail: mail, logger: logger}
}

// RegisterInput carries a tenant self-registration.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	IDNumber    string
	HouseNumber string
}

// RegisterTenant creates a pending tenant account and emails a
// verification code. The account cannot log in until it is both
// email-verified and admin-approved.
func (s *AuthService) RegisterTenant(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.Invalid("username", "username, email and password are required")
	}
	if len(in.Password) < 8 {
		return nil, domain.Invalid("password", "password must be at least 8 characters")
	}
	if existing, err := s.users.GetByEmail(in.Email); err == nil && existing != nil {
		return nil, domain.Invalid("email", "email already registered")
	}
	if existing, err := s.users.GetByUsername(in.Username); err == nil && existing != nil {
		return nil, domain.Invalid("username", "username already taken")
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}
	code, err := password.Code(6)
	if err != nil {
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Username:         in.Username,
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Phone:            in.Phone,
		IDNumber:         in.IDNumber,
		Role:             domain.RoleTenant,
		PasswordHash:     hash,
		ApprovalStatus:   domain.ApprovalPending,
		EmailVerified:    false,
		VerifyCode:       code,
		VerifyCodeExpiry: time.Now().Add(verifyCodeTTL),
		IsActive:         false,
		HouseNumber:      in.HouseNumber,
	}
	if err := s.users.Create(user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.sendEmail(ctx, user, "Verify your email",
		fmt.Sprintf("Welcome to the estate portal. Your verification code is %s. It expires in 15 minutes.", code))

	s.logger.Info("tenant registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// VerifyEmail checks the code sent at registration. On success the email
// is marked verified, and if the account is already admin-approved the
// login gate opens.
func (s *AuthService) VerifyEmail(email, code string) (*domain.User, error) {
	if email == "" || code == "" {
		return nil, domain.Invalid("code", "email and code are required")
	}
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return user, nil
	}
	if user.VerifyCode == "" || user.VerifyCode != code {
		return nil, domain.Invalid("code", "invalid verification code")
	}
	if time.Now().After(user.VerifyCodeExpiry) {
		return nil, domain.Invalid("code", "verification code expired")
	}

	user.EmailVerified = true
	user.VerifyCode = ""
	user.VerifyCodeExpiry = time.Time{}
	if user.ApprovalStatus == domain.ApprovalApproved {
		user.IsActive = true
	}
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	s.logger.Info("email verified",
		slog.Int64("user_id", user.ID),
		slog.Bool("active", user.IsActive),
	)
	return user, nil
}

// LoginResult is the token pair returned at login and refresh.
type LoginResult struct {
	UserID       int64       `json:"user_id"`
	Username     string      `json:"username"`
	Role         domain.Role `json:"role"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"` // seconds
	TokenType    string      `json:"token_type"`
}

// Login authenticates by username (or email) and password. Inactive
// accounts are refused even with correct credentials.
func (s *AuthService) Login(username, pass string) (*LoginResult, error) {
	if username == "" || pass == "" {
		return nil, domain.Invalid("username", "username and password are required")
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		user, err = s.users.GetByEmail(username)
	}
	if err != nil {
		s.logger.Info("login attempt for unknown account", slog.String("username", username))
		return nil, errors.New("invalid credentials")
	}

	if !password.Verify(pass, user.PasswordHash) {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		return nil, errors.New("invalid credentials")
	}

	if !user.IsActive {
		switch {
		case !user.EmailVerified:
			return nil, fmt.Errorf("%w: email not verified", domain.ErrForbidden)
		case user.ApprovalStatus == domain.ApprovalPending:
			return nil, fmt.Errorf("%w: account pending approval", domain.ErrForbidden)
		case user.ApprovalStatus == domain.ApprovalRejected:
			return nil, fmt.Errorf("%w: registration was rejected", domain.ErrForbidden)
		default:
			return nil, fmt.Errorf("%w: account disabled", domain.ErrForbidden)
		}
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new pair. The account
// must still be active.
func (s *AuthService) Refresh(refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account disabled", domain.ErrForbidden)
	}
	return s.issueTokens(user)
}

// StaffInput carries an admin-created staff account.
type StaffInput struct {
	Username       string
	Email          string
	FirstName      string
	LastName       string
	Phone          string
	IDNumber       string
	Role           domain.Role
	Specialization domain.Specialization
}

// StaffResult returns the created account with its one-time temporary
// password.
type StaffResult struct {
	User              *domain.User
	TemporaryPassword string
}

// CreateStaff makes a staff account with a generated temporary password.
// Staff accounts skip the approval gate entirely.
func (s *AuthService) CreateStaff(ctx context.Context, actor domain.Actor, in StaffInput) (*StaffResult, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return nil, domain.ErrForbidden
	}
	if in.Username == "" {
		return nil, domain.Invalid("username", "username is required")
	}
	if !in.Role.Valid() || !in.Role.IsStaff() {
		return nil, domain.Invalid("role", "role must be admin, technician or manager")
	}
	if in.Specialization != "" && !in.Specialization.Valid() {
		return nil, domain.Invalid("specialization", "unknown specialization")
	}
	if existing, err := s.users.GetByUsername(in.Username); err == nil && existing != nil {
		return nil, domain.Invalid("username", "username already taken")
	}

	temp, err := password.Generate(12)
	if err != nil {
		return nil, errors.New("failed to create user")
	}
	hash, err := password.Hash(temp)
	if err != nil {
		return nil, errors.New("failed to create user")
	}

	user := &domain.User{
		Username:         in.Username,
		Email:            in.Email,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Phone:            in.Phone,
		IDNumber:         in.IDNumber,
		Role:             in.Role,
		Specialization:   in.Specialization,
		PasswordHash:     hash,
		ProfileCompleted: false,
		ApprovalStatus:   domain.ApprovalApproved,
		EmailVerified:    true,
		IsActive:         true,
	}
	if err := s.users.Create(user); err != nil {
		s.logger.Error("failed to create staff user", slog.String("error", err.Error()))
		return nil, errors.New("failed to create user")
	}

	if user.Email != "" {
		s.sendEmail(ctx, user, "Your estate portal account",
			fmt.Sprintf("An account has been created for you. Temporary password: %s. You will be asked to complete your profile on first login.", temp))
	}

	s.logger.Info("staff account created",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &StaffResult{User: user, TemporaryPassword: temp}, nil
}

// ResetPassword sets a fresh temporary password on the account and forces
// the profile-completion flow again.
func (s *AuthService) ResetPassword(ctx context.Context, actor domain.Actor, userID int64) (*StaffResult, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return nil, domain.ErrForbidden
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	temp, err := password.Generate(12)
	if err != nil {
		return nil, errors.New("failed to reset password")
	}
	hash, err := password.Hash(temp)
	if err != nil {
		return nil, errors.New("failed to reset password")
	}

	user.PasswordHash = hash
	user.ProfileCompleted = false
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to reset password: %w", err)
	}

	if user.Email != "" {
		s.sendEmail(ctx, user, "Password reset",
			fmt.Sprintf("Your password has been reset. Temporary password: %s", temp))
	}

	s.logger.Info("password reset", slog.Int64("user_id", userID))
	return &StaffResult{User: user, TemporaryPassword: temp}, nil
}

// CompleteProfileInput carries the first-login profile completion.
type CompleteProfileInput struct {
	Email       string
	Phone       string
	IDNumber    string
	NewPassword string
}

// CompleteProfile finishes first-login setup: contact details plus a
// password of the user's own choosing.
func (s *AuthService) CompleteProfile(actor domain.Actor, in CompleteProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(actor.ID)
	if err != nil {
		return nil, err
	}
	if user.ProfileCompleted {
		return nil, fmt.Errorf("%w: profile already completed", domain.ErrConflict)
	}
	if len(in.NewPassword) < 8 {
		return nil, domain.Invalid("new_password", "password must be at least 8 characters")
	}

	hash, err := password.Hash(in.NewPassword)
	if err != nil {
		return nil, errors.New("failed to complete profile")
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.IDNumber != "" {
		user.IDNumber = in.IDNumber
	}
	user.PasswordHash = hash
	user.ProfileCompleted = true
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to complete profile: %w", err)
	}
	return user, nil
}

// UpdateProfileInput carries a self-service profile update. A password
// change requires the old password.
type UpdateProfileInput struct {
	Email       string
	Phone       string
	OldPassword string
	NewPassword string
}

// UpdateProfile lets a user change their own contact details and
// password.
func (s *AuthService) UpdateProfile(actor domain.Actor, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(actor.ID)
	if err != nil {
		return nil, err
	}

	if in.NewPassword != "" {
		if !password.Verify(in.OldPassword, user.PasswordHash) {
			return nil, domain.Invalid("old_password", "old password is incorrect")
		}
		if len(in.NewPassword) < 8 {
			return nil, domain.Invalid("new_password", "password must be at least 8 characters")
		}
		hash, err := password.Hash(in.NewPassword)
		if err != nil {
			return nil, errors.New("failed to update profile")
		}
		user.PasswordHash = hash
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *domain.User) (*LoginResult, error) {
	access, refresh, err := s.tokens.GeneratePair(user)
	if err != nil {
		s.logger.Error("failed to sign tokens", slog.String("error", err.Error()))
		return nil, errors.New("failed to generate token")
	}
	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// sendEmail delivers best-effort with retries. Failures are logged and
// swallowed so email trouble never fails the calling operation.
func (s *AuthService) sendEmail(ctx context.Context, user *domain.User, subject, body string) {
	_, err := retry.Do(ctx, retry.DefaultConfig(), s.logger, "send email",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.mail.Send(ctx, user.FullName(), user.Email, subject, body)
		})
	if err != nil {
		metrics.ObserveEmail("failure")
		s.logger.Error("email send failed",
			slog.Int64("user_id", user.ID),
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveEmail("success")
}
